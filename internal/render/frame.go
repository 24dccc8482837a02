// Package render draws topology and stats frames with go-chart renderers.
package render

import (
	"fmt"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Pane names one of the two independently animated views.
type Pane string

const (
	PaneTopology Pane = "topology"
	PaneStats    Pane = "stats"
)

// String returns the pane name.
func (p Pane) String() string {
	return string(p)
}

// Format is the encoding of a rendered frame.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unknown frame format %q (want svg or png)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

// Frame is one rendered image of a pane.
type Frame struct {
	ID         string    `json:"id"`
	Pane       Pane      `json:"pane"`
	Format     Format    `json:"format"`
	Data       []byte    `json:"-"`
	Nodes      int       `json:"nodes,omitempty"`
	Edges      int       `json:"edges,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Filename returns the conventional file name of the frame, e.g. "topology.svg".
func (f *Frame) Filename() string {
	return string(f.Pane) + "." + string(f.Format)
}
