package layout

import (
	"testing"

	"github.com/alfredjeanlab/alcviz/internal/model"
)

func snapshotWithLayers(sizes ...int) *model.Snapshot {
	snap := &model.Snapshot{}
	n := 0
	for depth, size := range sizes {
		for range size {
			n++
			snap.Cores = append(snap.Cores, model.Core{ID: string(rune('a' + n - 1)), Depth: depth})
		}
	}
	return snap
}

func TestCompute_LayersAreCenteredAndUnique(t *testing.T) {
	snap := snapshotWithLayers(1, 2, 3, 4, 5)
	l := Compute(snap)

	if len(l.Layers) != 5 {
		t.Fatalf("got %d layers, want 5", len(l.Layers))
	}
	for depth, layer := range l.Layers {
		if len(layer) != depth+1 {
			t.Fatalf("layer %d has %d cores, want %d", depth, len(layer), depth+1)
		}
		ys := map[float64]bool{}
		sum, atZero := 0.0, 0
		for _, id := range layer {
			p := l.Coords[id]
			if p.X != float64(depth)*HorizontalSpacing {
				t.Errorf("core %s x = %v, want %v", id, p.X, float64(depth)*HorizontalSpacing)
			}
			if ys[p.Y] {
				t.Errorf("layer %d: duplicate y %v", depth, p.Y)
			}
			ys[p.Y] = true
			sum += p.Y
			if p.Y == 0 {
				atZero++
			}
		}
		if sum != 0 {
			t.Errorf("layer %d: y offsets sum to %v, want 0", depth, sum)
		}
		if len(layer)%2 == 1 && atZero != 1 {
			t.Errorf("layer %d (odd): %d cores at y=0, want 1", depth, atZero)
		}
		if len(layer)%2 == 0 && atZero != 0 {
			t.Errorf("layer %d (even): %d cores at y=0, want 0", depth, atZero)
		}
	}
}

func TestCompute_PreservesRowOrder(t *testing.T) {
	snap := &model.Snapshot{Cores: []model.Core{
		{ID: "z", Depth: 0},
		{ID: "a", Depth: 0},
		{ID: "m", Depth: 0},
	}}
	l := Compute(snap)
	want := []struct {
		id string
		y  float64
	}{{"z", 3}, {"a", 0}, {"m", -3}}
	for _, w := range want {
		if got := l.Coords[w.id].Y; got != w.y {
			t.Errorf("core %s y = %v, want %v", w.id, got, w.y)
		}
	}
}

func TestCompute_GapInDepths(t *testing.T) {
	snap := &model.Snapshot{Cores: []model.Core{
		{ID: "1", Depth: 0},
		{ID: "2", Depth: 2},
	}}
	l := Compute(snap)
	if len(l.Layers) != 3 {
		t.Fatalf("got %d layers, want 3", len(l.Layers))
	}
	if len(l.Layers[1]) != 0 {
		t.Errorf("layer 1 should be empty, got %v", l.Layers[1])
	}
	if got := l.Coords["2"]; got != (Point{X: 6, Y: 0}) {
		t.Errorf("core 2 at %v, want (6,0)", got)
	}
}

func TestBounds(t *testing.T) {
	l := Compute(snapshotWithLayers(1, 2))
	lo, hi := l.Bounds()
	if lo != (Point{X: -0.5, Y: -2}) {
		t.Errorf("lo = %v", lo)
	}
	if hi != (Point{X: 3.5, Y: 2}) {
		t.Errorf("hi = %v", hi)
	}

	empty := Compute(&model.Snapshot{})
	if lo, hi := empty.Bounds(); lo != (Point{}) || hi != (Point{}) {
		t.Errorf("empty bounds = %v %v", lo, hi)
	}
}
