package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/alcviz/internal/config"
	"github.com/alfredjeanlab/alcviz/internal/ui"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "alcviz <command>",
	Short: "Live visualizer for ALC circuit topology and learning stats",
	Long: `alcviz watches the topology snapshot and stats files written by a running
ALC engine and renders them as two animated panes: the layered core graph
and the compression/system metrics over time.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if !ui.ShouldUseColor(os.Stdout) {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (.toml, .yaml or .yml; default $ALCVIZ_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "log every tick")

	rootCmd.AddGroup(
		&cobra.Group{ID: "animation", Title: "Animation:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Animation
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)

	// System
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger returns the stderr text logger, at debug level with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the config and applies the input flags shared by
// serve and render when they were given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("system") {
		cfg.SystemPath, _ = flags.GetString("system")
	}
	if flags.Changed("stats") {
		cfg.StatsPath, _ = flags.GetString("stats")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addInputFlags registers the flags naming the input files and frame format.
func addInputFlags(cmd *cobra.Command) {
	d := config.Defaults()
	cmd.Flags().String("system", d.SystemPath, "topology snapshot file")
	cmd.Flags().String("stats", d.StatsPath, "stats time series file")
	cmd.Flags().String("format", d.Format, "frame format (svg or png)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
