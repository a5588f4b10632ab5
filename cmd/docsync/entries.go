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

	"github.com/pdiddy/docsync/internal/state"
	"github.com/pdiddy/docsync/internal/vectorstore"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List the remote collection's entries against local state",
	Long: `Entries lists what the vector-store collection actually holds and
joins each entry with the local mappings. Entries no mapping points at
are marked as orphans; they usually mean a delete failed during an
update and the next sync of that article will retry it.`,
	RunE: runEntries,
}

func init() {
	entriesCmd.Flags().String("collection", "", "collection id to list (overrides config)")
	entriesCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(entriesCmd)
}

// entryRow joins a remote entry with the article that owns it.
type entryRow struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Article   string    `json:"article,omitempty"`
	Orphan    bool      `json:"orphan"`
}

func runEntries(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if v, _ := cmd.Flags().GetString("collection"); v != "" {
		cfg.Index.CollectionID = v
	}

	if cfg.Index.APIKey == "" {
		return fmt.Errorf("index api key is required: set index.api_key, DOCSYNC_INDEX_API_KEY, or .secrets/openai-api-key")
	}
	if cfg.Index.CollectionID == "" {
		return fmt.Errorf("collection id is required: set index.collection_id, DOCSYNC_INDEX_COLLECTION_ID, or --collection")
	}

	mappings, err := state.LoadMappings(cfg.State.Dir)
	if err != nil {
		return err
	}
	owners := make(map[string]string, mappings.Len())
	for name, rec := range mappings.All() {
		owners[rec.EntryID] = name
	}

	client := vectorstore.NewClient(cfg.Index)
	entries, err := client.ListEntries(context.Background(), cfg.Index.CollectionID)
	if err != nil {
		return err
	}

	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		row := entryRow{ID: e.ID, Status: e.Status, CreatedAt: e.CreatedAt}
		if name, ok := owners[e.ID]; ok {
			row.Article = name
		} else {
			row.Orphan = true
		}
		rows = append(rows, row)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printEntriesTable(cfg.Index.CollectionID, rows)
	return nil
}

func printEntriesTable(collectionID string, rows []entryRow) {
	if len(rows) == 0 {
		fmt.Printf("Collection %s holds no entries.\n", collectionID)
		return
	}

	fmt.Fprintf(os.Stdout, "%-28s  %-12s  %-20s  %s\n",
		"Entry", "Status", "Created", "Article")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	orphans := 0
	for _, r := range rows {
		article := r.Article
		if r.Orphan {
			article = "(orphan)"
			orphans++
		}
		fmt.Fprintf(os.Stdout, "%-28s  %-12s  %-20s  %s\n",
			r.ID, r.Status, r.CreatedAt.UTC().Format(time.RFC3339), article)
	}

	fmt.Fprintf(os.Stdout, "\n%d entries, %d orphan(s)\n", len(rows), orphans)
}
