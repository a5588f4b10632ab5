// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docsync/internal/backup"
	"github.com/pdiddy/docsync/internal/logging"
	"github.com/pdiddy/docsync/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the durable sync state (pull, push, show)",
	Long: `State works with the JSON documents that make syncs incremental:
fingerprints.json (content digests) and mappings.json (article to remote
entry mappings). Pull and push mirror them against the object store;
show prints the merged view.`,
}

// --- pull subcommand ---

var statePullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download state documents that are missing locally",
	Long: `Pull downloads fingerprints.json and mappings.json from the object
store into the state directory. Documents that already exist locally are
left untouched; the local copy always wins.`,
	RunE: runStatePull,
}

func runStatePull(cmd *cobra.Command, args []string) error {
	spaces, stateDir, err := backupClient()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	n := spaces.PullState(context.Background(), stateDir, stateDocuments)
	fmt.Printf("pulled %d state document(s)\n", n)
	return nil
}

// --- push subcommand ---

var statePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local state documents to the object store",
	RunE:  runStatePush,
}

func runStatePush(cmd *cobra.Command, args []string) error {
	spaces, stateDir, err := backupClient()
	if err != nil {
		return err
	}

	n := spaces.PushState(context.Background(), stateDir, stateDocuments)
	fmt.Printf("pushed %d state document(s)\n", n)
	return nil
}

// --- show subcommand ---

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the tracked articles with fingerprints and entry mappings",
	RunE:  runStateShow,
}

// stateRow merges one article's fingerprint and mapping for display.
type stateRow struct {
	Name         string `json:"name" yaml:"name"`
	Fingerprint  string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	EntryID      string `json:"entry_id,omitempty" yaml:"entry_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty" yaml:"collection_id,omitempty"`
	IngestedAt   string `json:"ingested_at,omitempty" yaml:"ingested_at,omitempty"`
}

func runStateShow(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	fingerprints, err := state.LoadFingerprints(cfg.State.Dir)
	if err != nil {
		return err
	}
	mappings, err := state.LoadMappings(cfg.State.Dir)
	if err != nil {
		return err
	}

	rows := mergeStateRows(fingerprints, mappings)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		printStateTable(rows)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("encoding state as YAML: %w", err)
		}
		os.Stdout.Write(data)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}
	return nil
}

// mergeStateRows joins the two documents on artifact name. A name missing
// from one document still gets a row; that asymmetry is what show exists
// to surface.
func mergeStateRows(fingerprints *state.Fingerprints, mappings *state.Mappings) []stateRow {
	seen := make(map[string]bool)
	var names []string
	for _, n := range fingerprints.Names() {
		seen[n] = true
		names = append(names, n)
	}
	for _, n := range mappings.Names() {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	rows := make([]stateRow, 0, len(names))
	for _, n := range names {
		row := stateRow{Name: n}
		if digest, ok := fingerprints.Get(n); ok {
			row.Fingerprint = digest
		}
		if rec, ok := mappings.Get(n); ok {
			row.EntryID = rec.EntryID
			row.CollectionID = rec.CollectionID
			if !rec.IngestedAt.IsZero() {
				row.IngestedAt = rec.IngestedAt.UTC().Format(time.RFC3339)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func printStateTable(rows []stateRow) {
	if len(rows) == 0 {
		fmt.Println("No tracked articles.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-40s  %-12s  %-24s  %-14s  %s\n",
		"Name", "Fingerprint", "Entry", "Collection", "Ingested")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 116))

	for _, r := range rows {
		digest := r.Fingerprint
		if len(digest) > 12 {
			digest = digest[:12]
		}
		name := r.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-12s  %-24s  %-14s  %s\n",
			name, digest, r.EntryID, r.CollectionID, r.IngestedAt)
	}

	fmt.Fprintf(os.Stdout, "\n%d article(s)\n", len(rows))
}

// --- shared helpers ---

// backupClient builds the Spaces client for pull and push, returning the
// state directory alongside it.
func backupClient() (*backup.Spaces, string, error) {
	cfg := buildConfig()
	if !backup.Configured(cfg.Backup) {
		return nil, "", fmt.Errorf("backup is not configured: set backup.endpoint, backup.bucket, and credentials")
	}

	spaces, err := backup.New(cfg.Backup, logging.Console(cfg.Logs.Level))
	if err != nil {
		return nil, "", err
	}
	return spaces, cfg.State.Dir, nil
}

func init() {
	stateShowCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	stateCmd.AddCommand(statePullCmd)
	stateCmd.AddCommand(statePushCmd)
	stateCmd.AddCommand(stateShowCmd)

	rootCmd.AddCommand(stateCmd)
}
