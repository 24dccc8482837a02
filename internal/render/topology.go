package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/alfredjeanlab/alcviz/internal/layout"
	"github.com/alfredjeanlab/alcviz/internal/model"
)

// Default frame size in pixels.
const (
	DefaultWidth  = 700
	DefaultHeight = 600
)

const (
	framePadding  = 24
	circleSides   = 36
	labelFontSize = 10
	markWeight    = 0.12 // glyph stroke width as a fraction of the core radius
)

// TopologyRenderer draws topology scenes.
type TopologyRenderer struct {
	Width  int
	Height int
	Format Format
}

// NewTopologyRenderer returns a renderer with the default frame size.
func NewTopologyRenderer(format Format) *TopologyRenderer {
	return &TopologyRenderer{Width: DefaultWidth, Height: DefaultHeight, Format: format}
}

// Render paints sc and returns the encoded image. The scene keeps an equal
// aspect ratio and is centered; no axes are drawn.
func (tr *TopologyRenderer) Render(sc *Scene) ([]byte, error) {
	r, err := tr.Format.provider()(tr.Width, tr.Height)
	if err != nil {
		return nil, fmt.Errorf("creating %s renderer: %w", tr.Format, err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	r.SetFont(font)

	tf := fitTransform(sc.Min, sc.Max, tr.Width, tr.Height, framePadding)

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.SetStrokeWidth(0)
	r.MoveTo(0, 0)
	r.LineTo(tr.Width, 0)
	r.LineTo(tr.Width, tr.Height)
	r.LineTo(0, tr.Height)
	r.Close()
	r.Fill()

	for _, e := range sc.Edges {
		paintEdge(r, tf, e)
	}
	for _, n := range sc.Nodes {
		paintNode(r, tf, n)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", tr.Format, err)
	}
	return buf.Bytes(), nil
}

func paintEdge(r chart.Renderer, tf transform, e EdgeShape) {
	c := toDrawing(e.Color)
	r.ResetStyle()
	r.SetStrokeColor(c)
	r.SetStrokeWidth(e.Arrow.Width)
	if len(e.Polyline) >= 2 {
		x, y := tf.px(e.Polyline[0])
		r.MoveTo(x, y)
		for _, p := range e.Polyline[1:] {
			x, y = tf.px(p)
			r.LineTo(x, y)
		}
		r.Stroke()
	}

	// Arrowhead along the last sampled segment.
	fx, fy := tf.pxf(e.Head[0])
	tx, ty := tf.pxf(e.Head[1])
	dx, dy := tx-fx, ty-fy
	if n := math.Hypot(dx, dy); n > 0 {
		dx, dy = dx/n, dy/n
		bx, by := tx-dx*e.Arrow.HeadLength, ty-dy*e.Arrow.HeadLength
		hw := e.Arrow.HeadWidth / 2
		r.SetFillColor(c)
		r.SetStrokeWidth(1)
		r.MoveTo(round(tx), round(ty))
		r.LineTo(round(bx-dy*hw), round(by+dx*hw))
		r.LineTo(round(bx+dy*hw), round(by-dx*hw))
		r.Close()
		r.FillStroke()
	}

	if e.Label != "" {
		r.SetFontColor(drawing.ColorBlack)
		r.SetFontSize(labelFontSize)
		centeredText(r, e.Label, tf, e.LabelAt)
	}
}

func paintNode(r chart.Renderer, tf transform, n NodeShape) {
	r.ResetStyle()
	r.SetFillColor(toDrawing(n.Fill))
	r.SetStrokeColor(drawing.ColorBlack)
	r.SetStrokeWidth(1)
	for i := 0; i <= circleSides; i++ {
		a := 2 * math.Pi * float64(i) / circleSides
		x, y := tf.px(layout.Point{
			X: n.Center.X + n.Radius*math.Cos(a),
			Y: n.Center.Y + n.Radius*math.Sin(a),
		})
		if i == 0 {
			r.MoveTo(x, y)
			continue
		}
		r.LineTo(x, y)
	}
	r.Close()
	r.FillStroke()

	if strokes := gateMark(n.Function); strokes != nil {
		paintMark(r, tf, n, strokes)
		return
	}
	if n.Label != "" {
		r.SetFontColor(drawing.ColorWhite)
		r.SetFontSize(labelFontSize)
		centeredText(r, n.Label, tf, n.Center)
	}
}

// gateMark returns the strokes of a gate's glyph in core-radius units around
// the core center, y up. The default fonts have no glyph for the logical
// and/or signs, so gates are drawn as paths in every format.
func gateMark(f model.Function) [][]layout.Point {
	switch f {
	case model.FunctionAND:
		return [][]layout.Point{{{X: -0.4, Y: -0.35}, {X: 0, Y: 0.4}, {X: 0.4, Y: -0.35}}}
	case model.FunctionOR:
		return [][]layout.Point{{{X: -0.4, Y: 0.35}, {X: 0, Y: -0.4}, {X: 0.4, Y: 0.35}}}
	case model.FunctionNOT:
		return [][]layout.Point{{{X: -0.45, Y: 0.1}, {X: 0.4, Y: 0.1}, {X: 0.4, Y: -0.25}}}
	}
	return nil
}

func paintMark(r chart.Renderer, tf transform, n NodeShape, strokes [][]layout.Point) {
	r.ResetStyle()
	r.SetStrokeColor(drawing.ColorBlack)
	r.SetStrokeWidth(math.Max(1.5, n.Radius*tf.scale*markWeight))
	for _, stroke := range strokes {
		for i, p := range stroke {
			x, y := tf.px(n.Center.Add(p.Scale(n.Radius)))
			if i == 0 {
				r.MoveTo(x, y)
				continue
			}
			r.LineTo(x, y)
		}
		r.Stroke()
	}
}

func centeredText(r chart.Renderer, s string, tf transform, at layout.Point) {
	x, y := tf.px(at)
	box := r.MeasureText(s)
	r.Text(s, x-box.Width()/2, y+box.Height()/2)
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// transform maps world coordinates (y up) to pixels (y down).
type transform struct {
	scale  float64
	ox, oy float64
	lo, hi layout.Point
}

func fitTransform(lo, hi layout.Point, w, h, pad int) transform {
	spanX, spanY := hi.X-lo.X, hi.Y-lo.Y
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	s := math.Min(float64(w-2*pad)/spanX, float64(h-2*pad)/spanY)
	return transform{
		scale: s,
		ox:    (float64(w) - spanX*s) / 2,
		oy:    (float64(h) - spanY*s) / 2,
		lo:    lo,
		hi:    layout.Point{X: lo.X + spanX, Y: lo.Y + spanY},
	}
}

func (t transform) pxf(p layout.Point) (float64, float64) {
	return t.ox + (p.X-t.lo.X)*t.scale, t.oy + (t.hi.Y-p.Y)*t.scale
}

func (t transform) px(p layout.Point) (int, int) {
	x, y := t.pxf(p)
	return round(x), round(y)
}

func round(v float64) int {
	return int(math.Round(v))
}
