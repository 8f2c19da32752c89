package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const maxDescriptionWidth = 60

var listCmd = &cobra.Command{
	Use:       "list [commands|skills]",
	Short:     "List the source commands or skills",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"commands", "skills"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		asJSON, _ := cmd.Flags().GetBool("json")

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

		infos := model.CommandInfos()
		if args[0] == "skills" {
			infos = model.SkillInfos()
		}

		if !asJSON && len(infos) == 0 {
			presenter.Info(fmt.Sprintf("No %s found in %s", args[0], cfg.SourcePath()))
			return
		}
		if err := writeInfos(os.Stdout, infos, asJSON); err != nil {
			presenter.Error(err, "Failed to print listing")
			os.Exit(1)
		}
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Print the listing as JSON")
}

func writeInfos(w io.Writer, infos []source.Info, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(infos), "failed to encode listing")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	fmt.Fprintln(tw, "--\t----\t-----------")
	for _, info := range infos {
		description := info.Description
		if len(description) > maxDescriptionWidth {
			description = description[:maxDescriptionWidth-3] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Name, description)
	}
	return tw.Flush()
}
