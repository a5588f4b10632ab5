// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile computes the delta between the local article snapshot
// and the remote index, and drives the remote mutations that close it.
// Implements docs/ARCHITECTURE § Reconciliation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/pdiddy/docsync/internal/logging"
	"github.com/pdiddy/docsync/internal/state"
	"github.com/pdiddy/docsync/internal/vectorstore"
	"github.com/pdiddy/docsync/pkg/types"
)

const defaultCollectionName = "Support Docs"

// Outcome summarizes one reconciliation run.
type Outcome struct {
	New     int
	Updated int
	Skipped int
	Failed  int

	// CollectionID is the collection the run reconciled into. Empty when
	// the snapshot was empty and no collection was resolved.
	CollectionID string
}

// Total returns the number of artifacts processed.
func (o Outcome) Total() int {
	return o.New + o.Updated + o.Skipped + o.Failed
}

// Reconciler owns the two state stores for the duration of a run and
// mutates the remote index through a Service.
type Reconciler struct {
	svc          vectorstore.Service
	fingerprints *state.Fingerprints
	mappings     *state.Mappings
	cfg          types.IndexConfig
	log          *slog.Logger
}

// New builds a Reconciler. A nil logger is replaced with a silent one.
func New(svc vectorstore.Service, fingerprints *state.Fingerprints, mappings *state.Mappings, cfg types.IndexConfig, log *slog.Logger) *Reconciler {
	if log == nil {
		log = logging.Discard()
	}
	return &Reconciler{
		svc:          svc,
		fingerprints: fingerprints,
		mappings:     mappings,
		cfg:          cfg,
		log:          log,
	}
}

// Run reconciles the artifact set against the remote index: unchanged
// artifacts are skipped, changed ones have their superseded entry deleted
// before re-ingest, new ones are ingested. One artifact's failure never
// aborts the run; collection resolution and state persistence failures
// do. Both stores are persisted once, after the loop.
func (r *Reconciler) Run(ctx context.Context, artifacts []types.Artifact) (Outcome, error) {
	if len(artifacts) == 0 {
		r.log.Warn("snapshot is empty, nothing to reconcile")
		return Outcome{}, nil
	}

	collectionID, err := r.resolveCollection(ctx)
	if err != nil {
		return Outcome{}, err
	}

	sorted := make([]types.Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	outcome := Outcome{CollectionID: collectionID}
	for _, artifact := range sorted {
		select {
		case <-ctx.Done():
			return outcome, ctx.Err()
		default:
		}
		r.reconcileOne(ctx, collectionID, artifact, &outcome)
	}

	// Mappings go first. If the run dies between the two writes, the next
	// run sees stale fingerprints and redundantly re-ingests, but it
	// deletes the correct entry ids while doing so. The reverse order
	// would leave fresh fingerprints pointing at unrecorded entries.
	if err := r.mappings.Persist(); err != nil {
		return outcome, fmt.Errorf("persisting mappings: %w", err)
	}
	if err := r.fingerprints.Persist(); err != nil {
		return outcome, fmt.Errorf("persisting fingerprints: %w", err)
	}

	r.log.Info("reconciliation complete",
		"collection", collectionID,
		"new", outcome.New,
		"updated", outcome.Updated,
		"skipped", outcome.Skipped,
		"failed", outcome.Failed,
	)
	return outcome, nil
}

// resolveCollection verifies the configured collection or creates a new
// one. Strict mode turns every fallback into a fatal error so a
// production run can never silently diverge into a fresh collection.
func (r *Reconciler) resolveCollection(ctx context.Context) (string, error) {
	if r.cfg.CollectionID != "" {
		coll, err := r.svc.RetrieveCollection(ctx, r.cfg.CollectionID)
		if err == nil && coll.Usable() {
			r.log.Info("using existing collection", "collection", coll.ID)
			return coll.ID, nil
		}

		if r.cfg.Strict {
			if err != nil {
				return "", fmt.Errorf("strict mode: collection %s could not be verified: %w", r.cfg.CollectionID, err)
			}
			return "", fmt.Errorf("strict mode: collection %s has status %q and cannot accept entries", r.cfg.CollectionID, coll.Status)
		}

		if err != nil {
			r.log.Warn("configured collection could not be verified, creating a new one",
				"collection", r.cfg.CollectionID, "error", err)
		} else {
			r.log.Warn("configured collection is unusable, creating a new one",
				"collection", r.cfg.CollectionID, "status", coll.Status)
		}
	} else if r.cfg.Strict {
		return "", fmt.Errorf("strict mode: no collection id configured")
	}

	name := r.cfg.CollectionName
	if name == "" {
		name = defaultCollectionName
	}
	coll, err := r.svc.CreateCollection(ctx, name)
	if err != nil {
		return "", fmt.Errorf("creating collection %q: %w", name, err)
	}
	r.log.Info("created collection", "collection", coll.ID, "name", name)
	return coll.ID, nil
}

// reconcileOne classifies one artifact and performs its remote mutations.
// Failures are logged and counted; they never propagate.
func (r *Reconciler) reconcileOne(ctx context.Context, collectionID string, artifact types.Artifact, outcome *Outcome) {
	content, err := os.ReadFile(artifact.Path)
	if err != nil {
		r.log.Error("reading artifact failed", "artifact", artifact.Name, "error", err)
		outcome.Failed++
		return
	}

	digest := state.Digest(content)
	previous, known := r.fingerprints.Get(artifact.Name)

	if known && previous == digest {
		r.log.Info("artifact unchanged", "artifact", artifact.Name)
		outcome.Skipped++
		return
	}

	if known {
		r.log.Info("artifact changed, reindexing", "artifact", artifact.Name)
		r.deleteSuperseded(ctx, collectionID, artifact.Name)
	} else {
		r.log.Info("artifact new, indexing", "artifact", artifact.Name)
	}

	entry, err := r.svc.Ingest(ctx, collectionID, artifact.Name, content)
	if err != nil {
		r.log.Error("ingest failed", "artifact", artifact.Name, "error", err)
		outcome.Failed++
		return
	}

	r.mappings.Set(artifact.Name, state.MappingRecord{
		EntryID:      entry.ID,
		CollectionID: collectionID,
		IngestedAt:   time.Now().UTC(),
	})
	r.fingerprints.Set(artifact.Name, digest)

	if known {
		outcome.Updated++
	} else {
		outcome.New++
	}
}

// deleteSuperseded removes the entry that previously carried this
// artifact's content. Best effort: an entry that is already gone or a
// delete that fails leaves at worst an orphaned remote entry, which is
// preferable to aborting the re-ingest.
func (r *Reconciler) deleteSuperseded(ctx context.Context, collectionID, name string) {
	rec, ok := r.mappings.Get(name)
	if !ok || rec.EntryID == "" {
		return
	}

	// The entry lives in the collection it was ingested into, which is
	// not necessarily the one this run resolved.
	owner := rec.CollectionID
	if owner == "" {
		owner = collectionID
	}

	err := r.svc.DeleteEntry(ctx, owner, rec.EntryID)
	switch {
	case err == nil:
		r.log.Info("deleted superseded entry", "artifact", name, "entry", rec.EntryID)
	case errors.Is(err, vectorstore.ErrNotFound):
		r.log.Warn("superseded entry already gone", "artifact", name, "entry", rec.EntryID)
	default:
		r.log.Warn("deleting superseded entry failed", "artifact", name, "entry", rec.EntryID, "error", err)
	}
}
