// Package layout places cores on a plane: one vertical column per depth,
// each column centered on y=0 with a fixed pitch between cores.
package layout

import (
	"math"

	"github.com/alfredjeanlab/alcviz/internal/model"
)

// Geometry constants, in world units.
const (
	CoreRadius        = 0.5
	HorizontalSpacing = 3.0
	VerticalSpacing   = 3.0
)

// Point is a position in world coordinates. Y grows upwards.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Len returns the distance of p from the origin.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist2 returns the squared distance between p and q.
func (p Point) Dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Layout holds the coordinates of one snapshot's cores.
type Layout struct {
	// Layers[d] lists core ids at depth d in snapshot order. Depths with no
	// cores have an empty layer.
	Layers [][]string
	Coords map[string]Point
	Depths map[string]int
}

// Compute lays out every core of snap.
func Compute(snap *model.Snapshot) *Layout {
	l := &Layout{
		Layers: make([][]string, snap.MaxDepth()+1),
		Coords: make(map[string]Point, len(snap.Cores)),
		Depths: make(map[string]int, len(snap.Cores)),
	}
	for _, c := range snap.Cores {
		l.Layers[c.Depth] = append(l.Layers[c.Depth], c.ID)
		l.Depths[c.ID] = c.Depth
	}
	for depth, layer := range l.Layers {
		k := len(layer)
		for j, id := range layer {
			l.Coords[id] = Point{
				X: float64(depth) * HorizontalSpacing,
				Y: VerticalSpacing * (float64(k-1)/2 - float64(j)),
			}
		}
	}
	return l
}

// Bounds returns the bounding box of all cores including their radius.
// An empty layout has a zero box.
func (l *Layout) Bounds() (lo, hi Point) {
	first := true
	for _, p := range l.Coords {
		if first {
			lo, hi = p, p
			first = false
			continue
		}
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	if first {
		return Point{}, Point{}
	}
	pad := Point{CoreRadius, CoreRadius}
	return lo.Sub(pad), hi.Add(pad)
}
