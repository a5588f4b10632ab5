// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docsync/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync runs from the ledger",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 10, "maximum number of runs to show")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	ledger, err := runlog.Open(cfg.State.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := ledger.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	printRunsTable(runs)
	return nil
}

func printRunsTable(runs []runlog.Run) {
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-9s  %4s  %4s  %4s  %4s  %-14s  %s\n",
		"ID", "Started", "Duration", "New", "Upd", "Skip", "Fail", "Collection", "Error")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range runs {
		errText := r.Error
		if len(errText) > 40 {
			errText = errText[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-9s  %4d  %4d  %4d  %4d  %-14s  %s\n",
			r.ID,
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.New, r.Updated, r.Skipped, r.Failed,
			r.CollectionID,
			errText,
		)
	}

	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(runs))
}
