package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pbakaus/impeccable/pkg/config"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/webui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for browsing and downloading generated files",
	Long: `Start a local web server that lists the source commands and skills, exposes
the extracted design patterns and serves generated files and bundles from dist/.

The server will be available at http://localhost:8080 by default.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServeCommand(cmd.Context(), loadConfig())
	},
}

func init() {
	defaults := config.Default().Serve
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the web server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the web server to")
	serveCmd.Flags().String("static-dir", "", "Directory served at / (optional)")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("serve.static_dir", serveCmd.Flags().Lookup("static-dir"))
}

func newServerConfig(cfg config.Config) *webui.ServerConfig {
	return &webui.ServerConfig{
		Host:          cfg.Serve.Host,
		Port:          cfg.Serve.Port,
		SourceDir:     cfg.SourcePath(),
		DistDir:       cfg.DistPath(),
		OutputSuffix:  cfg.OutputSuffix,
		NamePrefix:    cfg.NamePrefix,
		PatternsSkill: cfg.PatternsSkill,
		StaticDir:     cfg.Serve.StaticDir,
	}
}

func runServeCommand(ctx context.Context, cfg config.Config) {
	if cfg.Serve.Port < 1024 {
		logger.G(ctx).WithField("port", cfg.Serve.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	logger.G(ctx).WithFields(map[string]any{
		"host": cfg.Serve.Host,
		"port": cfg.Serve.Port,
	}).Info("Starting web server")

	server, err := webui.NewServer(newServerConfig(cfg))
	if err != nil {
		presenter.Error(err, "failed to create web server")
		os.Exit(1)
	}
	defer func() {
		if stopErr := server.Stop(); stopErr != nil {
			logger.G(ctx).WithError(stopErr).Error("failed to stop web server")
		}
	}()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("Web server starting on http://%s:%d", cfg.Serve.Host, cfg.Serve.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("web server error")
		presenter.Error(err, "web server failed")
		os.Exit(1)
	}

	presenter.Info("Web server stopped")
}
