package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alfredjeanlab/alcviz/internal/model"
)

const sampleTopology = `id, type, subtype, id1, id2, depth, support
1, core, input, 0, 0, 0, 0
2, core, selector_0, 0, 0, 1, 0
3, core, selector_1, 0, 0, 1, 0
4, core, not, 0, 0, 2, 0
5, core, output, 0, 0, 3, 0
0, interconnect, regular, 1, 2, 0, 0.5
0, interconnect, speculative, 1, 4, 0, 1
0, interconnect, regular, 4, 5, 0, 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestReadTopology(t *testing.T) {
	snap, err := ReadTopology(writeFile(t, "out.sys", sampleTopology))
	if err != nil {
		t.Fatalf("ReadTopology: %v", err)
	}

	wantCores := []model.Core{
		{ID: "1", Function: model.FunctionIO, Depth: 0},
		{ID: "2", Function: model.FunctionAND, Depth: 1},
		{ID: "3", Function: model.FunctionOR, Depth: 1},
		{ID: "4", Function: model.FunctionNOT, Depth: 2},
		{ID: "5", Function: model.FunctionIO, Depth: 3},
	}
	if len(snap.Cores) != len(wantCores) {
		t.Fatalf("got %d cores, want %d", len(snap.Cores), len(wantCores))
	}
	for i, want := range wantCores {
		if snap.Cores[i] != want {
			t.Errorf("core[%d] = %+v, want %+v", i, snap.Cores[i], want)
		}
	}

	wantEdges := []model.Interconnect{
		{Source: "1", Target: "2", Support: 0.5},
		{Source: "1", Target: "4", Support: 1, Speculative: true},
		{Source: "4", Target: "5", Support: 0},
	}
	if len(snap.Interconnects) != len(wantEdges) {
		t.Fatalf("got %d interconnects, want %d", len(snap.Interconnects), len(wantEdges))
	}
	for i, want := range wantEdges {
		if snap.Interconnects[i] != want {
			t.Errorf("interconnect[%d] = %+v, want %+v", i, snap.Interconnects[i], want)
		}
	}
}

func TestReadTopology_ByteIdenticalFilesAreEqual(t *testing.T) {
	a, err := ReadTopology(writeFile(t, "a.sys", sampleTopology))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ReadTopology(writeFile(t, "b.sys", sampleTopology))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatal("snapshots from identical files should be equal")
	}

	changed := strings.Replace(sampleTopology, "1, 2, 0, 0.5", "1, 2, 0, 0.75", 1)
	c, err := ReadTopology(writeFile(t, "c.sys", changed))
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(c) {
		t.Fatal("changing one support value should make snapshots unequal")
	}
}

func TestParseTopology_Malformed(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		line    int
		column  string
	}{
		{
			name:    "empty file",
			content: "",
		},
		{
			name:    "missing type column",
			content: "id, subtype, depth\n1, io, 0\n",
			line:    1,
			column:  ColType,
		},
		{
			name:    "non-numeric support",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io, 0, 0, 0, 0\n2, core, io, 0, 0, 1, 0\n0, interconnect, regular, 1, 2, 0, lots\n",
			line:    4,
			column:  ColSupport,
		},
		{
			name:    "unknown endpoint",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io, 0, 0, 0, 0\n0, interconnect, regular, 1, 9, 0, 0.5\n",
			line:    3,
			column:  ColID2,
		},
		{
			name:    "non-integer depth",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io, 0, 0, deep, 0\n",
			line:    2,
			column:  ColDepth,
		},
		{
			name:    "negative depth",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io, 0, 0, -1, 0\n",
			line:    2,
			column:  ColDepth,
		},
		{
			name:    "short row",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io\n",
			line:    2,
			column:  ColDepth,
		},
		{
			name:    "duplicate core",
			content: "id, type, subtype, id1, id2, depth, support\n1, core, io, 0, 0, 0, 0\n1, core, io, 0, 0, 1, 0\n",
			line:    3,
			column:  ColID,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTopology(strings.NewReader(tc.content), "test.sys")
			if err == nil {
				t.Fatal("expected error")
			}
			var me *model.MalformedSnapshotError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MalformedSnapshotError, got %T: %v", err, err)
			}
			if me.Line != tc.line {
				t.Errorf("line = %d, want %d (%v)", me.Line, tc.line, err)
			}
			if me.Column != tc.column {
				t.Errorf("column = %q, want %q (%v)", me.Column, tc.column, err)
			}
		})
	}
}

func TestReadTopology_MissingFile(t *testing.T) {
	_, err := ReadTopology(filepath.Join(t.TempDir(), "nope.sys"))
	if !model.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

const statsHeader = "statically_compressed, dynamically_compressed, effectively_compressed, compressed, memory, learning_sensitivity, aggressiveness, tolerance, lossiness, overwhelm, curiosity, core_count, interconnect_count, extra\n"

func TestReadStats(t *testing.T) {
	content := statsHeader +
		"10, 20, 30, 40, 50, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 99\n" +
		"11, 21, 31, 41, 51, 0.11, 0.21, 0.31, 0.41, 0.51, 0.61, 0.71, 0.81, 99\n"
	stats, err := ReadStats(writeFile(t, "out.sta", content))
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if stats.Rows != 2 {
		t.Fatalf("rows = %d, want 2", stats.Rows)
	}
	mem, ok := stats.Series(model.ColMemory)
	if !ok || len(mem) != 2 || mem[0] != 50 || mem[1] != 51 {
		t.Errorf("memory series = %v, %v", mem, ok)
	}
	ic, _ := stats.Series(model.ColInterconnectCount)
	if ic[1] != 0.81 {
		t.Errorf("interconnect_count[1] = %v, want 0.81", ic[1])
	}
	if _, ok := stats.Series("extra"); ok {
		t.Error("unknown columns should not be kept")
	}
}

func TestParseStats_MissingColumn(t *testing.T) {
	header := strings.Replace(statsHeader, " curiosity,", "", 1)
	_, err := ParseStats(strings.NewReader(header), "out.sta")
	var me *model.MalformedSnapshotError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedSnapshotError, got %v", err)
	}
	if me.Column != model.ColCuriosity {
		t.Errorf("column = %q, want %q", me.Column, model.ColCuriosity)
	}
}

func TestParseStats_NonNumeric(t *testing.T) {
	content := statsHeader + "x, 20, 30, 40, 50, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0\n"
	_, err := ParseStats(strings.NewReader(content), "out.sta")
	if !model.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestParseStats_HeaderOnly(t *testing.T) {
	stats, err := ParseStats(strings.NewReader(statsHeader), "out.sta")
	if err != nil {
		t.Fatalf("ParseStats: %v", err)
	}
	if stats.Rows != 0 {
		t.Errorf("rows = %d, want 0", stats.Rows)
	}
}
