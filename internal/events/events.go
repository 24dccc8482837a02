// Package events carries frame notifications over NATS.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/render"
)

// Event topic constants
const (
	TopicFrameTopology = "alcviz.frame.topology"
	TopicFrameStats    = "alcviz.frame.stats"
	TopicTickMalformed = "alcviz.tick.malformed"

	// TopicAll matches every alcviz subject.
	TopicAll = "alcviz.>"
)

// FrameTopic returns the subject new frames of pane are published on.
func FrameTopic(pane render.Pane) string {
	return "alcviz.frame." + pane.String()
}

// Event types

// FramePublished announces a new frame. The image itself is not included.
type FramePublished struct {
	ID     string        `json:"id"`
	Pane   render.Pane   `json:"pane"`
	Format render.Format `json:"format"`
	Nodes  int           `json:"nodes,omitempty"`
	Edges  int           `json:"edges,omitempty"`
	Rows   int           `json:"rows,omitempty"`
	At     time.Time     `json:"at"`
}

// NewFramePublished describes f.
func NewFramePublished(f *render.Frame) FramePublished {
	return FramePublished{
		ID:     f.ID,
		Pane:   f.Pane,
		Format: f.Format,
		Nodes:  f.Nodes,
		Edges:  f.Edges,
		Rows:   f.Rows,
		At:     f.RenderedAt,
	}
}

// TickMalformed reports a tick skipped because its input did not parse.
type TickMalformed struct {
	Pane  render.Pane `json:"pane"`
	Error string      `json:"error"`
	At    time.Time   `json:"at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
