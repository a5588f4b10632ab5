// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docsync/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch articles and write the Markdown snapshot without syncing",
	Long: `Fetch downloads the current article listing and materializes it as
<slug>.md files in the snapshot directory, then stops. Nothing is
reconciled and no state changes. Use it to inspect what a sync would
index.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("max-articles", 0, "cap on fetched articles (0 = config value)")
	fetchCmd.Flags().String("dir", "", "snapshot directory (overrides config)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if v, _ := cmd.Flags().GetInt("max-articles"); v > 0 {
		cfg.Source.MaxArticles = v
	}
	if v, _ := cmd.Flags().GetString("dir"); v != "" {
		cfg.Snapshot.Dir = v
	}

	if cfg.Source.APIURL == "" {
		return fmt.Errorf("source api_url is required: set source.api_url or DOCSYNC_SOURCE_API_URL")
	}

	client := fetch.NewClient(cfg.Source)
	articles, err := client.Articles(context.Background())
	if err != nil {
		return fmt.Errorf("fetching articles: %w", err)
	}

	artifacts, summary, err := fetch.Materialize(articles, cfg.Snapshot.Dir, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\nsaved %d of %d article(s) to %s\n", len(artifacts), summary.Total(), cfg.Snapshot.Dir)
	if summary.Failed > 0 {
		return fmt.Errorf("%d article(s) failed to materialize", summary.Failed)
	}
	return nil
}
