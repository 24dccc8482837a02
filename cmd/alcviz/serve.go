package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/alcviz/internal/config"
	"github.com/alfredjeanlab/alcviz/internal/events"
	"github.com/alfredjeanlab/alcviz/internal/metrics"
	"github.com/alfredjeanlab/alcviz/internal/mirror"
	"github.com/alfredjeanlab/alcviz/internal/render"
	"github.com/alfredjeanlab/alcviz/internal/scheduler"
	"github.com/alfredjeanlab/alcviz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Animate both panes and serve them over HTTP",
	GroupID: "animation",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("speed") {
			cfg.Speed, _ = flags.GetInt("speed")
			if !flags.Changed("stats-speed") {
				cfg.StatsSpeed = cfg.Speed
			}
		}
		if flags.Changed("stats-speed") {
			cfg.StatsSpeed, _ = flags.GetInt("stats-speed")
		}
		if flags.Changed("addr") {
			cfg.HTTPAddr, _ = flags.GetString("addr")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m := metrics.New(reg)

		display := server.New(logger)
		surfaces := []scheduler.Surface{display}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			surfaces = append(surfaces, events.NewNotifier(pub, logger))
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (ALCVIZ_NATS_URL not set)")
		}

		frameMirror := newMirror(cmd.Context(), cfg, logger)
		if frameMirror != nil {
			surfaces = append(surfaces, frameMirror)
		}

		sched := scheduler.New(scheduler.Config{
			TopologyPath:     cfg.SystemPath,
			StatsPath:        cfg.StatsPath,
			TopologyInterval: scheduler.Interval(cfg.Speed),
			StatsInterval:    scheduler.Interval(cfg.StatsSpeed),
			Format:           format,
		}, surfaces, logger, m)

		if path, _ := flags.GetString("record"); path != "" {
			closePublisher(publisher, logger)
			return sched.Export(path)
		}

		lis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			closePublisher(publisher, logger)
			return fmt.Errorf("listening on %s: %w", cfg.HTTPAddr, err)
		}
		httpServer := &http.Server{
			Handler:           display.NewHTTPHandler(cfg.AuthToken, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", lis.Addr().String())
			if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		if frameMirror != nil {
			frameMirror.Start()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		animDone := make(chan struct{})
		go func() {
			defer close(animDone)
			if err := sched.Run(ctx); err != nil {
				logger.Error("animation stopped", "err", err)
			}
		}()

		logger.Info("alcviz started",
			"system", cfg.SystemPath,
			"stats", cfg.StatsPath,
			"speed", cfg.Speed,
			"stats_speed", cfg.StatsSpeed,
			"format", format,
			"instance", display.InstanceID(),
		)

		<-ctx.Done()
		logger.Info("received signal, shutting down")

		// Graceful shutdown.
		display.Close()
		<-animDone
		logger.Info("animation stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if frameMirror != nil {
			frameMirror.Stop(shutdownCtx)
			logger.Info("frame mirror stopped")
		}

		closePublisher(publisher, logger)

		logger.Info("shutdown complete")
		return nil
	},
}

// closePublisher flushes and closes pub, logging any failure.
func closePublisher(pub events.Publisher, logger *slog.Logger) {
	if err := pub.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
}

// newMirror builds the frame mirror from the configured destinations, or
// returns nil when none is configured. A destination that cannot be set up
// is logged and skipped.
func newMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) *mirror.Mirror {
	if ctx == nil {
		ctx = context.Background()
	}
	var dests []mirror.Destination

	if cfg.MirrorS3Bucket != "" {
		s3Dest, err := mirror.NewS3Destination(ctx,
			cfg.MirrorS3Bucket,
			cfg.MirrorS3KeyPrefix,
			cfg.MirrorS3Region,
			cfg.MirrorS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 mirror destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("mirror S3 destination enabled", "bucket", cfg.MirrorS3Bucket, "prefix", cfg.MirrorS3KeyPrefix)
		}
	}

	if cfg.MirrorDir != "" {
		dirDest, err := mirror.NewDirDestination(cfg.MirrorDir)
		if err != nil {
			logger.Error("failed to create directory mirror destination", "err", err)
		} else {
			dests = append(dests, dirDest)
			logger.Info("mirror directory destination enabled", "dir", cfg.MirrorDir)
		}
	}

	if len(dests) == 0 {
		return nil
	}
	return mirror.New(dests, cfg.MirrorInterval, logger)
}

func init() {
	addInputFlags(serveCmd)
	d := config.Defaults()
	serveCmd.Flags().Int("speed", d.Speed, "topology animation speed 0-9 (0 renders once)")
	serveCmd.Flags().Int("stats-speed", d.StatsSpeed, "stats animation speed 0-9 (default: --speed)")
	serveCmd.Flags().String("addr", d.HTTPAddr, "HTTP listen address")
	serveCmd.Flags().String("record", "", "record the animation to a video file (unsupported)")
}
