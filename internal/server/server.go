// Package server is the HTTP display surface: it keeps the latest frame of
// each pane and serves it to browsers, with SSE notifications on every new
// frame.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/alcviz/internal/events"
	"github.com/alfredjeanlab/alcviz/internal/render"
	"github.com/alfredjeanlab/alcviz/internal/scheduler"
)

// Server holds the latest frame of each pane. It implements
// scheduler.Surface and scheduler.MalformedObserver.
type Server struct {
	logger     *slog.Logger
	feed       *feed
	instanceID string
	now        func() time.Time

	mu     sync.RWMutex
	frames map[render.Pane]*render.Frame
	closed bool
}

// New returns an empty display surface.
func New(logger *slog.Logger) *Server {
	return &Server{
		logger:     logger,
		feed:       newFeed(),
		instanceID: uuid.NewString(),
		now:        time.Now,
		frames:     make(map[render.Pane]*render.Frame),
	}
}

// InstanceID identifies this server process. It changes on every start, so
// clients can tell a restart from a dropped connection.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// Present replaces the latest frame of f's pane and notifies SSE clients.
// After Close it returns scheduler.ErrSurfaceClosed.
func (s *Server) Present(_ context.Context, f *render.Frame) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return scheduler.ErrSurfaceClosed
	}
	s.frames[f.Pane] = f
	s.mu.Unlock()

	s.broadcastEvent(events.FrameTopic(f.Pane), events.NewFramePublished(f))
	return nil
}

// Malformed notifies SSE clients that a tick was skipped.
func (s *Server) Malformed(_ context.Context, pane render.Pane, err error) {
	s.broadcastEvent(events.TopicTickMalformed, events.TickMalformed{
		Pane:  pane,
		Error: err.Error(),
		At:    s.now(),
	})
}

// Latest returns the most recent frame of pane, or nil before the first one.
func (s *Server) Latest(pane render.Pane) *render.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames[pane]
}

// Close marks the surface closed. Frames already stored remain readable.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Server) broadcastEvent(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("encoding feed event", "topic", topic, "err", err)
		return
	}
	s.feed.publish(topic, payload)
}
