package render

import (
	"image/color"

	"github.com/alfredjeanlab/alcviz/internal/layout"
	"github.com/alfredjeanlab/alcviz/internal/model"
	"github.com/alfredjeanlab/alcviz/internal/route"
)

// Arrow styles, in pixels.
type arrowStyle struct {
	Width      float64
	HeadLength float64
	HeadWidth  float64
}

var (
	regularArrow     = arrowStyle{Width: 1.5, HeadLength: 10, HeadWidth: 8}
	speculativeArrow = arrowStyle{Width: 0.75, HeadLength: 7, HeadWidth: 5}
)

// NodeShape is a core as drawn. Label is the core id for IO cores and the
// function glyph for gates.
type NodeShape struct {
	ID       string
	Function model.Function
	Center   layout.Point
	Radius   float64
	Fill     color.RGBA
	Label    string
}

// EdgeShape is an interconnect as drawn.
type EdgeShape struct {
	Polyline []layout.Point
	Head     [2]layout.Point
	Color    color.RGBA
	Arrow    arrowStyle
	Label    string
	LabelAt  layout.Point
}

// Scene is everything one topology frame contains, in world coordinates.
type Scene struct {
	Nodes []NodeShape
	Edges []EdgeShape
	Min   layout.Point
	Max   layout.Point
}

// BuildScene turns a laid out and routed snapshot into drawable shapes.
func BuildScene(snap *model.Snapshot, lay *layout.Layout, paths []route.Path) *Scene {
	sc := &Scene{
		Nodes: make([]NodeShape, 0, len(snap.Cores)),
		Edges: make([]EdgeShape, 0, len(paths)),
	}
	sc.Min, sc.Max = lay.Bounds()

	for i := range paths {
		p := &paths[i]
		g := uint8(p.Interconnect.Shade()*255 + 0.5)
		arrow := regularArrow
		if p.Interconnect.Speculative {
			arrow = speculativeArrow
		}
		from, to := p.Head()
		e := EdgeShape{
			Polyline: p.Samples,
			Head:     [2]layout.Point{from, to},
			Color:    color.RGBA{R: g, G: g, B: g, A: 0xff},
			Arrow:    arrow,
			Label:    p.Label(),
			LabelAt:  p.LabelPoint(),
		}
		sc.Edges = append(sc.Edges, e)
		for _, pt := range p.Samples {
			sc.grow(pt)
		}
		if e.Label != "" {
			sc.grow(e.LabelAt)
		}
	}

	for _, c := range snap.Cores {
		sc.Nodes = append(sc.Nodes, NodeShape{
			ID:       c.ID,
			Function: c.Function,
			Center:   lay.Coords[c.ID],
			Radius:   layout.CoreRadius,
			Fill:     c.Function.Style().Fill,
			Label:    c.Label(),
		})
	}
	return sc
}

func (sc *Scene) grow(p layout.Point) {
	sc.Min.X = min(sc.Min.X, p.X)
	sc.Min.Y = min(sc.Min.Y, p.Y)
	sc.Max.X = max(sc.Max.X, p.X)
	sc.Max.Y = max(sc.Max.Y, p.Y)
}

// Node returns the shape of the core with the given id.
func (sc *Scene) Node(id string) (NodeShape, bool) {
	for _, n := range sc.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeShape{}, false
}
