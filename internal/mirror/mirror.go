// Package mirror copies the latest frame of each pane to external storage.
//
// Frames are produced far faster than uploads finish, so Present only records
// the newest frame per pane; a background loop writes whatever is pending on
// each flush. Destinations therefore always hold the latest frame, never a
// history.
package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/render"
)

// DefaultInterval is how often pending frames are flushed.
const DefaultInterval = time.Second

// Destination is a mirror target (S3, a directory).
type Destination interface {
	// Write stores data under name, replacing any previous object.
	Write(ctx context.Context, name string, data []byte, contentType string) error
}

// Mirror is a display surface that forwards frames to destinations.
type Mirror struct {
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	pending map[render.Pane]*render.Frame

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a mirror writing to the given destinations every interval.
func New(destinations []Destination, interval time.Duration, logger *slog.Logger) *Mirror {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Mirror{
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		pending:      make(map[render.Pane]*render.Frame),
	}
}

// Present queues f, replacing any frame of the same pane not yet written.
func (m *Mirror) Present(_ context.Context, f *render.Frame) error {
	m.mu.Lock()
	m.pending[f.Pane] = f
	m.mu.Unlock()
	return nil
}

// Start begins the flush loop.
func (m *Mirror) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

// Stop ends the flush loop, then writes anything still pending so the
// destinations end up with the last frames shown.
func (m *Mirror) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.Flush(ctx)
}

func (m *Mirror) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}

// Flush writes every pending frame to every destination. Failures are
// logged; a frame that failed is not retried unless it is still the latest
// at the next flush.
func (m *Mirror) Flush(ctx context.Context) {
	m.mu.Lock()
	batch := m.pending
	m.pending = make(map[render.Pane]*render.Frame)
	m.mu.Unlock()

	for _, f := range batch {
		name := f.Filename()
		for i, dest := range m.destinations {
			if err := dest.Write(ctx, name, f.Data, f.Format.ContentType()); err != nil {
				m.logger.Error("mirror write failed", "destination", i, "frame", f.ID, "pane", f.Pane, "err", err)
				continue
			}
			m.logger.Debug("frame mirrored", "destination", i, "frame", f.ID, "name", name, "bytes", len(f.Data))
		}
	}
}
