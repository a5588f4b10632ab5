// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/pdiddy/docsync/internal/backup"
	"github.com/pdiddy/docsync/internal/fetch"
	"github.com/pdiddy/docsync/internal/logging"
	"github.com/pdiddy/docsync/internal/reconcile"
	"github.com/pdiddy/docsync/internal/runlog"
	"github.com/pdiddy/docsync/internal/state"
	"github.com/pdiddy/docsync/internal/vectorstore"
	"github.com/pdiddy/docsync/pkg/types"
)

// stateDocuments lists the documents the backup phases mirror.
var stateDocuments = []string{state.FingerprintsName, state.MappingsName}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch articles and reconcile them into the vector store",
	Long: `Sync runs the full job: pull state from the object store if missing
locally, fetch the current articles, materialize them as Markdown
artifacts, reconcile the snapshot against the vector store (index new and
changed articles, delete superseded entries first), persist the updated
state, record the run in the ledger, push state back, and ship the logs.

The run exits zero when it completes, even if individual articles failed;
setup errors (missing credentials, lock held, unusable collection in
strict mode) exit nonzero.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Int("max-articles", 0, "cap on fetched articles (0 = config value)")
	syncCmd.Flags().String("collection", "", "collection id to reconcile into (overrides config)")
	syncCmd.Flags().Bool("strict", false, "fail instead of creating a collection when the configured one is unusable")
	syncCmd.Flags().Bool("no-backup", false, "skip object-store state pull/push and log shipping")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if v, _ := cmd.Flags().GetInt("max-articles"); v > 0 {
		cfg.Source.MaxArticles = v
	}
	if v, _ := cmd.Flags().GetString("collection"); v != "" {
		cfg.Index.CollectionID = v
	}
	if v, _ := cmd.Flags().GetBool("strict"); v {
		cfg.Index.Strict = true
	}
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	if cfg.Source.APIURL == "" {
		return fmt.Errorf("source api_url is required: set source.api_url or DOCSYNC_SOURCE_API_URL")
	}
	if cfg.Index.APIKey == "" {
		return fmt.Errorf("index api key is required: set index.api_key, DOCSYNC_INDEX_API_KEY, or .secrets/openai-api-key")
	}

	log, closeLogs, err := logging.Open(cfg.Logs)
	if err != nil {
		return err
	}
	defer closeLogs()

	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	// One sync at a time: a second invocation fails fast instead of
	// racing the state documents.
	lock := flock.New(filepath.Join(cfg.State.Dir, state.LockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another sync holds the run lock at %s", lock.Path())
	}
	defer lock.Unlock()

	ctx := context.Background()
	started := time.Now().UTC()
	log.Info("sync starting", "version", version, "collection_id", cfg.Index.CollectionID)

	var spaces *backup.Spaces
	switch {
	case noBackup:
		log.Info("backup disabled for this run")
	case !backup.Configured(cfg.Backup):
		log.Info("backup not configured, skipping state pull and log shipping")
	default:
		if spaces, err = backup.New(cfg.Backup, log); err != nil {
			log.Warn("backup client unavailable", "error", err)
			spaces = nil
		}
	}

	if spaces != nil {
		spaces.PullState(ctx, cfg.State.Dir, stateDocuments)
	}

	res, runErr := executeSync(ctx, cfg, log)

	recordRun(ctx, cfg.State.LedgerPath, log, runlog.Run{
		StartedAt:    started,
		FinishedAt:   time.Now().UTC(),
		CollectionID: res.outcome.CollectionID,
		New:          res.outcome.New,
		Updated:      res.outcome.Updated,
		Skipped:      res.outcome.Skipped,
		Failed:       res.outcome.Failed,
		Error:        errorString(runErr),
	})

	if spaces != nil {
		spaces.PushState(ctx, cfg.State.Dir, stateDocuments)
	}

	if spaces != nil {
		urls := spaces.ShipLogs(ctx, cfg.Logs.Dir)
		if urls.LastRun != "" {
			log.Info("run log shipped", "url", urls.LastRun)
		}
		if urls.Daily != "" {
			log.Info("daily log shipped", "url", urls.Daily)
		}
	}

	if runErr != nil {
		log.Error("sync failed", "error", runErr)
		return runErr
	}

	log.Info("sync finished",
		"fetched", res.fetched,
		"saved", res.saved,
		"new", res.outcome.New,
		"updated", res.outcome.Updated,
		"skipped", res.outcome.Skipped,
		"failed", res.outcome.Failed,
		"collection_id", res.outcome.CollectionID,
	)

	fmt.Printf("\nentries: new %d, updated %d, skipped %d, failed %d\n",
		res.outcome.New, res.outcome.Updated, res.outcome.Skipped, res.outcome.Failed)
	fmt.Printf("collection: %s\n", res.outcome.CollectionID)
	return nil
}

// syncResult carries the pipeline counts into the summary and the ledger.
type syncResult struct {
	fetched int
	saved   int
	outcome reconcile.Outcome
}

// executeSync runs fetch, materialize, and reconcile. The snapshot
// directory is removed before it returns; the state documents it leaves
// behind are the run's durable product.
func executeSync(ctx context.Context, cfg types.SyncConfig, log *slog.Logger) (syncResult, error) {
	var res syncResult

	fetcher := fetch.NewClient(cfg.Source)
	articles, err := fetcher.Articles(ctx)
	if err != nil {
		return res, fmt.Errorf("fetching articles: %w", err)
	}
	res.fetched = len(articles)
	log.Info("fetched article listing", "articles", len(articles))

	_, saved, err := fetch.Materialize(articles, cfg.Snapshot.Dir, os.Stdout)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := os.RemoveAll(cfg.Snapshot.Dir); err != nil {
			log.Warn("removing snapshot directory failed", "error", err)
		}
	}()
	res.saved = saved.Saved
	log.Info("materialized snapshot", "saved", saved.Saved, "failed", saved.Failed)

	artifacts, err := reconcile.ListArtifacts(cfg.Snapshot.Dir)
	if err != nil {
		return res, err
	}

	fingerprints, err := state.LoadFingerprints(cfg.State.Dir)
	if err != nil {
		return res, err
	}
	mappings, err := state.LoadMappings(cfg.State.Dir)
	if err != nil {
		return res, err
	}

	engine := reconcile.New(vectorstore.NewClient(cfg.Index), fingerprints, mappings, cfg.Index, log)
	res.outcome, err = engine.Run(ctx, artifacts)
	return res, err
}

// recordRun appends the run to the ledger. Ledger problems never fail
// the run.
func recordRun(ctx context.Context, ledgerPath string, log *slog.Logger, run runlog.Run) {
	ledger, err := runlog.Open(ledgerPath)
	if err != nil {
		log.Warn("run ledger unavailable", "error", err)
		return
	}
	defer ledger.Close()

	if err := ledger.Record(ctx, run); err != nil {
		log.Warn("recording run failed", "error", err)
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
