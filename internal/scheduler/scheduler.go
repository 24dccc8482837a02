// Package scheduler drives the two animation loops: the topology pane,
// redrawn only when the snapshot file changes, and the stats pane, redrawn
// on every tick.
//
// Both loops share one goroutine. Each tick reads its input file, renders a
// frame and presents it to every configured Surface. A malformed input skips
// the tick and leaves the last frame in place; a closed surface ends the run.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/idgen"
	"github.com/alfredjeanlab/alcviz/internal/layout"
	"github.com/alfredjeanlab/alcviz/internal/metrics"
	"github.com/alfredjeanlab/alcviz/internal/model"
	"github.com/alfredjeanlab/alcviz/internal/render"
	"github.com/alfredjeanlab/alcviz/internal/route"
	"github.com/alfredjeanlab/alcviz/internal/snapshot"
)

var (
	// ErrSurfaceClosed is returned by a Surface whose display went away.
	// It stops both loops.
	ErrSurfaceClosed = errors.New("display surface closed")

	// ErrExportUnsupported is returned when an animation recording is requested.
	ErrExportUnsupported = errors.New("animation export is not supported")
)

// Surface receives rendered frames.
type Surface interface {
	Present(ctx context.Context, f *render.Frame) error
}

// MalformedObserver is implemented by surfaces that want to hear about
// skipped ticks.
type MalformedObserver interface {
	Malformed(ctx context.Context, pane render.Pane, err error)
}

// Outcome is what a tick did.
type Outcome int

const (
	Redrawn Outcome = iota
	Unchanged
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Redrawn:
		return "redrawn"
	case Unchanged:
		return "unchanged"
	}
	return "skipped"
}

// Config selects the inputs and the cadence of both loops.
type Config struct {
	TopologyPath string
	StatsPath    string

	// Intervals between ticks. Zero renders the pane once.
	TopologyInterval time.Duration
	StatsInterval    time.Duration

	Format render.Format

	// Rand is the jitter source for routing; nil seeds from entropy.
	Rand *rand.Rand
}

// Scheduler owns the animation loops and the previous-snapshot slot.
type Scheduler struct {
	cfg      Config
	surfaces []Surface
	logger   *slog.Logger
	metrics  *metrics.Metrics

	router *route.Router
	topo   *render.TopologyRenderer
	stats  *render.StatsRenderer
	now    func() time.Time

	prev   *model.Snapshot
	layout *layout.Layout
}

// New creates a scheduler. A nil m records into unregistered collectors.
func New(cfg Config, surfaces []Surface, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if cfg.Format == "" {
		cfg.Format = render.FormatSVG
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Scheduler{
		cfg:      cfg,
		surfaces: surfaces,
		logger:   logger,
		metrics:  m,
		router:   route.New(cfg.Rand),
		topo:     render.NewTopologyRenderer(cfg.Format),
		stats:    render.NewStatsRenderer(cfg.Format),
		now:      time.Now,
	}
}

// Reset forgets the previous snapshot, so the next topology tick redraws.
func (s *Scheduler) Reset() {
	s.prev = nil
	s.layout = nil
}

// Layout returns the layout of the frame currently on display, or nil.
func (s *Scheduler) Layout() *layout.Layout {
	return s.layout
}

// Export would record the animation to a video file. It always fails.
func (s *Scheduler) Export(path string) error {
	s.logger.Error("animation export requested", "path", path, "err", ErrExportUnsupported)
	return ErrExportUnsupported
}

// Run renders both panes immediately, then keeps ticking until ctx is done
// or a surface closes. It returns nil in both cases. When both intervals are
// zero, Run returns after the first render.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Reset()

	topoC, stopTopo := tickerFor(s.cfg.TopologyInterval)
	defer stopTopo()
	statsC, stopStats := tickerFor(s.cfg.StatsInterval)
	defer stopStats()

	s.logger.Info("animation started",
		"topology", s.cfg.TopologyPath, "topology_interval", s.cfg.TopologyInterval,
		"stats", s.cfg.StatsPath, "stats_interval", s.cfg.StatsInterval)

	if _, err := s.TickTopology(ctx); errors.Is(err, ErrSurfaceClosed) {
		return s.closed()
	}
	if _, err := s.TickStats(ctx); errors.Is(err, ErrSurfaceClosed) {
		return s.closed()
	}
	if topoC == nil && statsC == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("animation stopped")
			return nil
		case <-topoC:
			if _, err := s.TickTopology(ctx); errors.Is(err, ErrSurfaceClosed) {
				return s.closed()
			}
		case <-statsC:
			if _, err := s.TickStats(ctx); errors.Is(err, ErrSurfaceClosed) {
				return s.closed()
			}
		}
	}
}

func (s *Scheduler) closed() error {
	s.logger.Info("display surface closed, animation stopped")
	return nil
}

// tickerFor returns a tick channel, or nil for a zero interval so that the
// select never fires for that pane.
func tickerFor(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// TickTopology reloads the topology snapshot and redraws it if it differs
// from the previous one. On any error the previous frame, snapshot and
// layout are kept.
func (s *Scheduler) TickTopology(ctx context.Context) (Outcome, error) {
	pane := render.PaneTopology
	s.metrics.Ticks.WithLabelValues(pane.String()).Inc()

	snap, err := snapshot.ReadTopology(s.cfg.TopologyPath)
	if err != nil {
		s.skipMalformed(ctx, pane, err)
		return Skipped, err
	}
	if snap.Equal(s.prev) {
		s.metrics.Unchanged.Inc()
		s.logger.Debug("topology unchanged", "path", s.cfg.TopologyPath)
		return Unchanged, nil
	}

	start := s.now()
	lay := layout.Compute(snap)
	paths, err := s.router.Route(snap, lay)
	if err != nil {
		s.skipMalformed(ctx, pane, err)
		return Skipped, err
	}
	data, err := s.topo.Render(render.BuildScene(snap, lay, paths))
	if err != nil {
		s.logger.Error("topology render failed", "pane", pane, "err", err)
		return Skipped, err
	}
	s.metrics.RenderSeconds.WithLabelValues(pane.String()).Observe(s.now().Sub(start).Seconds())

	f, err := s.frame(pane, data)
	if err != nil {
		return Skipped, err
	}
	f.Nodes, f.Edges = len(snap.Cores), len(snap.Interconnects)
	if err := s.present(ctx, f); err != nil {
		return Skipped, err
	}

	s.prev, s.layout = snap, lay
	s.metrics.Redraws.WithLabelValues(pane.String()).Inc()
	s.logger.Debug("topology redrawn", "frame", f.ID, "nodes", f.Nodes, "edges", f.Edges)
	return Redrawn, nil
}

// TickStats reloads the stats file and always redraws it.
func (s *Scheduler) TickStats(ctx context.Context) (Outcome, error) {
	pane := render.PaneStats
	s.metrics.Ticks.WithLabelValues(pane.String()).Inc()

	stats, err := snapshot.ReadStats(s.cfg.StatsPath)
	if err != nil {
		s.skipMalformed(ctx, pane, err)
		return Skipped, err
	}

	start := s.now()
	data, err := s.stats.Render(stats)
	if errors.Is(err, render.ErrNoSamples) {
		s.logger.Debug("stats file has no samples yet", "path", s.cfg.StatsPath)
		return Skipped, err
	}
	if model.IsMalformed(err) {
		s.skipMalformed(ctx, pane, err)
		return Skipped, err
	}
	if err != nil {
		s.logger.Error("stats render failed", "pane", pane, "err", err)
		return Skipped, err
	}
	s.metrics.RenderSeconds.WithLabelValues(pane.String()).Observe(s.now().Sub(start).Seconds())

	f, err := s.frame(pane, data)
	if err != nil {
		return Skipped, err
	}
	f.Rows = stats.Rows
	if err := s.present(ctx, f); err != nil {
		return Skipped, err
	}
	s.metrics.Redraws.WithLabelValues(pane.String()).Inc()
	s.logger.Debug("stats redrawn", "frame", f.ID, "rows", f.Rows)
	return Redrawn, nil
}

func (s *Scheduler) frame(pane render.Pane, data []byte) (*render.Frame, error) {
	id, err := idgen.Frame(pane.String())
	if err != nil {
		s.logger.Error("frame id generation failed", "pane", pane, "err", err)
		return nil, err
	}
	return &render.Frame{
		ID:         id,
		Pane:       pane,
		Format:     s.cfg.Format,
		Data:       data,
		RenderedAt: s.now(),
	}, nil
}

// present hands f to every surface. Only ErrSurfaceClosed is returned; other
// surface failures are logged and the remaining surfaces still get the frame.
func (s *Scheduler) present(ctx context.Context, f *render.Frame) error {
	for _, sf := range s.surfaces {
		err := sf.Present(ctx, f)
		if errors.Is(err, ErrSurfaceClosed) {
			return err
		}
		if err != nil {
			s.logger.Warn("presenting frame failed", "pane", f.Pane, "frame", f.ID, "err", err)
		}
	}
	return nil
}

func (s *Scheduler) skipMalformed(ctx context.Context, pane render.Pane, err error) {
	s.metrics.Malformed.WithLabelValues(pane.String()).Inc()
	s.logger.Warn("skipping tick on malformed snapshot", "pane", pane, "err", err)
	for _, sf := range s.surfaces {
		if obs, ok := sf.(MalformedObserver); ok {
			obs.Malformed(ctx, pane, err)
		}
	}
}
