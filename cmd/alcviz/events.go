package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/alcviz/internal/config"
	"github.com/alfredjeanlab/alcviz/internal/events"
	"github.com/alfredjeanlab/alcviz/internal/ui"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "Follow frame notifications published by a running alcviz serve",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if u, _ := cmd.Flags().GetString("nats-url"); u != "" {
			cfg.NATSURL = u
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("no NATS server: set ALCVIZ_NATS_URL or --nats-url")
		}
		topic, _ := cmd.Flags().GetString("topic")
		raw, _ := cmd.Flags().GetBool("json")

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(out, msg, raw, logger)
			}
		}
	},
}

// printEvent writes one line per event.
func printEvent(w io.Writer, msg events.Message, raw bool, logger *slog.Logger) {
	if raw {
		fmt.Fprintf(w, "%s\n", msg.Data)
		return
	}

	switch {
	case strings.HasPrefix(msg.Topic, "alcviz.frame."):
		var ev events.FramePublished
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("undecodable event", "topic", msg.Topic, "err", err)
			return
		}
		detail := fmt.Sprintf("%d cores, %d interconnects", ev.Nodes, ev.Edges)
		if ev.Pane == "stats" {
			detail = fmt.Sprintf("%d samples", ev.Rows)
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			ui.RenderMuted(ev.At.Format(time.TimeOnly)),
			ui.RenderPane(ev.Pane.String()),
			ev.ID,
			ui.RenderMuted(detail))

	case msg.Topic == events.TopicTickMalformed:
		var ev events.TickMalformed
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("undecodable event", "topic", msg.Topic, "err", err)
			return
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			ui.RenderMuted(ev.At.Format(time.TimeOnly)),
			ui.RenderPane(ev.Pane.String()),
			ui.RenderWarn("malformed"),
			ev.Error)

	default:
		fmt.Fprintf(w, "%s %s\n", msg.Topic, msg.Data)
	}
}

func init() {
	eventsCmd.Flags().String("nats-url", "", "NATS server URL (default $ALCVIZ_NATS_URL)")
	eventsCmd.Flags().String("topic", events.TopicAll, "subject to follow (NATS wildcards allowed)")
	eventsCmd.Flags().Bool("json", false, "print raw JSON payloads")
}
