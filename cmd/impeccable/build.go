package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pbakaus/impeccable/pkg/config"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/pipeline"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate every target from the source tree",
	Long: `Read source/commands and source/skills, write one output tree per target
under dist/ and package each tree as dist/<target>.zip.

With --watch the build reruns whenever a source file changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := applyBuildFlags(cmd, loadConfig())

		watchMode, _ := cmd.Flags().GetBool("watch")
		if !watchMode {
			if err := runBuild(ctx, cfg); err != nil {
				os.Exit(1)
			}
			return
		}
		runWatch(ctx, cfg)
	},
}

func init() {
	buildCmd.Flags().StringSlice("target", nil, "Target to build (repeatable; cursor, claude-code, gemini, codex)")
	buildCmd.Flags().String("name-prefix", "", "Prefix prepended to every generated command name")
	buildCmd.Flags().String("output-suffix", "", "Suffix appended to every output directory and bundle name")
	buildCmd.Flags().Bool("no-bundle", false, "Skip zip packaging")
	buildCmd.Flags().Bool("watch", false, "Rebuild when source files change")

	viper.BindPFlag("targets", buildCmd.Flags().Lookup("target"))
	viper.BindPFlag("name_prefix", buildCmd.Flags().Lookup("name-prefix"))
	viper.BindPFlag("output_suffix", buildCmd.Flags().Lookup("output-suffix"))
}

// applyBuildFlags applies the flags that have no configuration key of their own.
func applyBuildFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	if noBundle, err := cmd.Flags().GetBool("no-bundle"); err == nil && noBundle {
		cfg.Bundle = false
	}
	return cfg
}

func runBuild(ctx context.Context, cfg config.Config) error {
	logger.G(ctx).WithFields(map[string]any{
		"source":  cfg.SourcePath(),
		"dist":    cfg.DistPath(),
		"targets": cfg.Targets,
	}).Debug("starting build")
	presenter.Section(fmt.Sprintf("Building %d targets", len(cfg.Targets)))

	report, err := pipeline.Build(ctx, cfg, pipeline.Options{})
	if err != nil {
		presenter.Error(err, "Build failed")
		return err
	}

	presenter.Info(fmt.Sprintf("Built %d targets, %d bundles", len(report.Summaries), len(report.Bundles)))
	return nil
}

func runWatch(ctx context.Context, cfg config.Config) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A broken first build is reported but does not stop watching.
	_ = runBuild(ctx, cfg)

	w, err := watch.New(func(ctx context.Context, paths []string) {
		if presenter.IsQuiet() {
			// the terminal stays silent, so keep a trace in the log
			logger.G(ctx).WithField("paths", paths).Info("source changed, rebuilding")
		} else {
			presenter.Separator()
			presenter.Info(fmt.Sprintf("Change detected in %d file(s), rebuilding", len(paths)))
			for _, p := range paths {
				presenter.Info("  " + p)
			}
		}
		_ = runBuild(ctx, cfg)
	}, watch.DefaultDelay, cfg.SourcePath())
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		os.Exit(1)
	}

	presenter.Info(fmt.Sprintf("Watching %s for changes. Press Ctrl+C to stop", cfg.SourcePath()))
	if err := w.Run(ctx); err != nil {
		presenter.Error(err, "File watcher failed")
		os.Exit(1)
	}
	presenter.Info("Watch stopped")
}
