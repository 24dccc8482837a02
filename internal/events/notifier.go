package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/alcviz/internal/render"
)

// Notifier announces frames and skipped ticks on a Publisher. It is a
// display surface for the scheduler.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewNotifier returns a Notifier publishing on pub.
func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{pub: pub, logger: logger, now: time.Now}
}

// Present publishes a FramePublished for f.
func (n *Notifier) Present(ctx context.Context, f *render.Frame) error {
	topic := FrameTopic(f.Pane)
	if err := n.pub.Publish(ctx, topic, NewFramePublished(f)); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Malformed publishes a TickMalformed. Failures are logged.
func (n *Notifier) Malformed(ctx context.Context, pane render.Pane, cause error) {
	ev := TickMalformed{Pane: pane, Error: cause.Error(), At: n.now()}
	if err := n.pub.Publish(ctx, TopicTickMalformed, ev); err != nil {
		n.logger.Warn("failed to publish event", "topic", TopicTickMalformed, "pane", pane, "err", err)
	}
}
