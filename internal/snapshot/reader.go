// Package snapshot reads the tabular files written by the circuit engine:
// the topology snapshot (cores and interconnects) and the stats time series.
//
// Both are CSV with a header row. Leading whitespace in cells is ignored, so
// "id, type, subtype" and "id,type,subtype" are the same header.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/alcviz/internal/model"
)

// Topology file columns.
const (
	ColID      = "id"
	ColType    = "type"
	ColSubtype = "subtype"
	ColID1     = "id1"
	ColID2     = "id2"
	ColDepth   = "depth"
	ColSupport = "support"
)

// TopologyHeader is the header the engine writes for topology files.
var TopologyHeader = []string{ColID, ColType, ColSubtype, ColID1, ColID2, ColDepth, ColSupport}

const (
	rowKindCore        = "core"
	subkindSpeculative = "speculative"
)

// ReadTopology loads the topology snapshot at path.
// Every failure, including a missing file, is a *model.MalformedSnapshotError.
func ReadTopology(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.MalformedSnapshotError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()
	return ParseTopology(f, path)
}

// ReadStats loads the stats time series at path.
func ReadStats(path string) (*model.StatsSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.MalformedSnapshotError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()
	return ParseStats(f, path)
}

// table is a header-addressed view over a CSV stream.
type table struct {
	path  string
	r     *csv.Reader
	index map[string]int
	row   []string
	line  int
}

func newTable(r io.Reader, path string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.MalformedSnapshotError{Path: path, Reason: "empty file"}
	}
	if err != nil {
		return nil, &model.MalformedSnapshotError{Path: path, Line: 1, Reason: "unreadable header", Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &table{path: path, r: cr, index: index}, nil
}

// next advances to the next row. It returns io.EOF after the last row.
func (t *table) next() error {
	row, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		var pe *csv.ParseError
		line := 0
		if errors.As(err, &pe) {
			line = pe.Line
		}
		return &model.MalformedSnapshotError{Path: t.path, Line: line, Reason: "unreadable row", Err: err}
	}
	t.row = row
	t.line, _ = t.r.FieldPos(0)
	return nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// cell returns the trimmed value of col in the current row.
func (t *table) cell(col string) (string, error) {
	i, ok := t.index[col]
	if !ok {
		return "", t.errorf(col, nil, "missing column")
	}
	if i >= len(t.row) {
		return "", t.errorf(col, nil, "missing value")
	}
	return strings.TrimSpace(t.row[i]), nil
}

func (t *table) float(col string) (float64, error) {
	s, err := t.cell(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.errorf(col, err, "not a number: %q", s)
	}
	if math.IsNaN(v) {
		return 0, t.errorf(col, nil, "not a number: %q", s)
	}
	return v, nil
}

func (t *table) errorf(col string, cause error, format string, args ...any) error {
	return &model.MalformedSnapshotError{
		Path:   t.path,
		Line:   t.line,
		Column: col,
		Reason: fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// ParseTopology parses a topology snapshot. path is used only for error
// messages. Core and interconnect order follows the row order.
func ParseTopology(r io.Reader, path string) (*model.Snapshot, error) {
	t, err := newTable(r, path)
	if err != nil {
		return nil, err
	}
	if !t.has(ColType) {
		return nil, &model.MalformedSnapshotError{Path: path, Line: 1, Column: ColType, Reason: "missing column"}
	}

	snap := &model.Snapshot{}
	seen := make(map[string]struct{})
	var edgeLines []int

	for {
		if err := t.next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		kind, err := t.cell(ColType)
		if err != nil {
			return nil, err
		}
		subkind, err := t.cell(ColSubtype)
		if err != nil {
			return nil, err
		}

		if kind == rowKindCore {
			core, err := parseCore(t, subkind)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[core.ID]; dup {
				return nil, t.errorf(ColID, nil, "duplicate core id %q", core.ID)
			}
			seen[core.ID] = struct{}{}
			snap.Cores = append(snap.Cores, core)
			continue
		}

		ic, err := parseInterconnect(t, subkind)
		if err != nil {
			return nil, err
		}
		snap.Interconnects = append(snap.Interconnects, ic)
		edgeLines = append(edgeLines, t.line)
	}

	for i, ic := range snap.Interconnects {
		for _, end := range []struct{ col, id string }{{ColID1, ic.Source}, {ColID2, ic.Target}} {
			if _, ok := seen[end.id]; !ok {
				return nil, &model.MalformedSnapshotError{
					Path:   path,
					Line:   edgeLines[i],
					Column: end.col,
					Reason: fmt.Sprintf("unknown core id %q", end.id),
				}
			}
		}
	}
	return snap, nil
}

func parseCore(t *table, subkind string) (model.Core, error) {
	id, err := t.cell(ColID)
	if err != nil {
		return model.Core{}, err
	}
	if id == "" {
		return model.Core{}, t.errorf(ColID, nil, "empty core id")
	}
	raw, err := t.cell(ColDepth)
	if err != nil {
		return model.Core{}, err
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return model.Core{}, t.errorf(ColDepth, err, "not an integer: %q", raw)
	}
	if depth < 0 {
		return model.Core{}, t.errorf(ColDepth, nil, "negative depth %d", depth)
	}
	return model.Core{ID: id, Function: model.FunctionFor(subkind), Depth: depth}, nil
}

func parseInterconnect(t *table, subkind string) (model.Interconnect, error) {
	src, err := t.cell(ColID1)
	if err != nil {
		return model.Interconnect{}, err
	}
	dst, err := t.cell(ColID2)
	if err != nil {
		return model.Interconnect{}, err
	}
	support, err := t.float(ColSupport)
	if err != nil {
		return model.Interconnect{}, err
	}
	return model.Interconnect{
		Source:      src,
		Target:      dst,
		Support:     support,
		Speculative: subkind == subkindSpeculative,
	}, nil
}

// ParseStats parses a stats time series. Every column in model.StatsColumns
// must be present; other columns are ignored.
func ParseStats(r io.Reader, path string) (*model.StatsSnapshot, error) {
	t, err := newTable(r, path)
	if err != nil {
		return nil, err
	}
	for _, col := range model.StatsColumns {
		if !t.has(col) {
			return nil, &model.MalformedSnapshotError{Path: path, Line: 1, Column: col, Reason: "missing column"}
		}
	}

	stats := &model.StatsSnapshot{Columns: make(map[string][]float64, len(model.StatsColumns))}
	for {
		if err := t.next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for _, col := range model.StatsColumns {
			v, err := t.float(col)
			if err != nil {
				return nil, err
			}
			stats.Columns[col] = append(stats.Columns[col], v)
		}
		stats.Rows++
	}
	return stats, nil
}
