package main

import (
	"fmt"
	"os"

	"github.com/pbakaus/impeccable/pkg/config"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "impeccable",
	Short: "Build design skills and commands for AI coding tools",
	Long: `Impeccable turns one tree of markdown commands and skills into the native
formats of Cursor, Claude Code, Gemini CLI and Codex CLI, and packages each
result as a zip bundle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		return configureOutput(viper.GetBool("quiet"), viper.GetString("log_file"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.Default()
	rootCmd.PersistentFlags().String("root", defaults.Root, "Project root containing the source and dist directories")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", defaults.LogFormat, "Log format (fmt, text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "Append log lines to this file instead of stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output; errors are still printed")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if err := config.Init(viper.GetViper()); err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}
}

// configureOutput applies quiet mode to the presenter and, when logFile is set,
// redirects the global logger to it. The file stays open for the process.
func configureOutput(quiet bool, logFile string) error {
	presenter.SetQuiet(quiet)
	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open log file '%s'", logFile)
	}
	logger.SetLogOutput(f)
	return nil
}

// loadConfig resolves and validates the configuration for a command run.
func loadConfig() config.Config {
	cfg, err := config.FromViper(viper.GetViper())
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		presenter.Error(err, "Invalid configuration")
		os.Exit(1)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
