package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/spf13/cobra"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the design patterns and anti-patterns as JSON",
	Long: `Extract the "patterns to follow" and "patterns to avoid" sections of the
designated skill (frontend-design by default, see patterns_skill) and print
them as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		loader, err := source.NewLoader(source.WithSourceDir(cfg.SourcePath()))
		if err != nil {
			presenter.Error(err, "Failed to initialize source loader")
			os.Exit(1)
		}
		model, err := loader.Load(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load source documents")
			os.Exit(1)
		}

		data, err := json.MarshalIndent(patterns.FromModel(ctx, model, cfg.PatternsSkill), "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to encode patterns")
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}
