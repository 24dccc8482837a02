package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/alcviz/internal/mirror"
	"github.com/alfredjeanlab/alcviz/internal/render"
	"github.com/alfredjeanlab/alcviz/internal/scheduler"
	"github.com/alfredjeanlab/alcviz/internal/ui"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Short:   "Render both panes once and write them to a directory",
	GroupID: "animation",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, err := render.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out-dir")

		dest, err := mirror.NewDirDestination(outDir)
		if err != nil {
			return err
		}
		out := mirror.New([]mirror.Destination{dest}, 0, logger)
		report := &renderReport{w: cmd.OutOrStdout(), dir: outDir}

		sched := scheduler.New(scheduler.Config{
			TopologyPath: cfg.SystemPath,
			StatsPath:    cfg.StatsPath,
			Format:       format,
		}, []scheduler.Surface{out, report}, logger, nil)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := sched.Run(ctx); err != nil {
			return err
		}
		out.Flush(ctx)
		return report.err()
	},
}

// renderReport prints each written frame and remembers why a pane was
// skipped.
type renderReport struct {
	w       io.Writer
	dir     string
	written map[render.Pane]bool
	skipped map[render.Pane]error
}

func (r *renderReport) Present(_ context.Context, f *render.Frame) error {
	if r.written == nil {
		r.written = make(map[render.Pane]bool)
	}
	r.written[f.Pane] = true
	fmt.Fprintf(r.w, "%s %s %s\n",
		ui.RenderOK("wrote"),
		filepath.Join(r.dir, f.Filename()),
		ui.RenderMuted(frameSummary(f)))
	return nil
}

func (r *renderReport) Malformed(_ context.Context, pane render.Pane, err error) {
	if r.skipped == nil {
		r.skipped = make(map[render.Pane]error)
	}
	r.skipped[pane] = err
	fmt.Fprintf(r.w, "%s %s: %v\n", ui.RenderWarn("skipped"), ui.RenderPane(pane.String()), err)
}

// err fails the command when the topology pane was not written. A stats file
// with no samples yet is not an error.
func (r *renderReport) err() error {
	if r.written[render.PaneTopology] {
		return nil
	}
	if cause := r.skipped[render.PaneTopology]; cause != nil {
		return fmt.Errorf("topology not rendered: %w", cause)
	}
	return fmt.Errorf("topology not rendered")
}

func frameSummary(f *render.Frame) string {
	if f.Pane == render.PaneStats {
		return fmt.Sprintf("(%d samples)", f.Rows)
	}
	return fmt.Sprintf("(%d cores, %d interconnects)", f.Nodes, f.Edges)
}

func init() {
	addInputFlags(renderCmd)
	renderCmd.Flags().String("out-dir", ".", "directory to write topology.<format> and stats.<format> into")
}
