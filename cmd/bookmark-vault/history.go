
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookmark-vault/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the run ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		withItems, _ := cmd.Flags().GetBool("items")

		book, err := ledger.Open(cfg.Run.StateDir, logger)
		if err != nil {
			return err
		}
		defer book.Close()

		runs, err := book.Recent(cmd.Context(), limit, withItems || asJSON || asYAML)
		if err != nil {
			return err
		}

		switch {
		case asJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		case asYAML:
			return yaml.NewEncoder(os.Stdout).Encode(runs)
		}
		return printRuns(runs, withItems)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().Bool("items", false, "include per-post results")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().Bool("yaml", false, "output as YAML")

	rootCmd.AddCommand(historyCmd)
}

func printRuns(runs []ledger.Run, withItems bool) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tPHASE\tPOSTS\tSAVED\tFAILED\tREMOVED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.StartedAt.Local().Format(time.DateTime), shortID(r.RunID), r.Phase,
			r.Total, r.Succeeded, r.Failed, r.RemovalSucceeded)
		if withItems {
			for _, it := range r.Items {
				status := "saved"
				switch {
				case !it.Success:
					status = "failed: " + it.Error
				case it.Duplicate:
					status = "duplicate"
				}
				fmt.Fprintf(tw, "\t  %s\t%s\t%s\t\t\t%s\n", it.PostID, status, it.Path, it.RemovalStatus)
			}
		}
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
