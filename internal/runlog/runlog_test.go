// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "runs.db")
	ledger, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger, path
}

func TestOpenCreatesDatabase(t *testing.T) {
	_, path := testLedger(t)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", path)
	}
}

func TestRecordAndRecent(t *testing.T) {
	ledger, _ := testLedger(t)
	ctx := context.Background()

	started := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	run := Run{
		StartedAt:    started,
		FinishedAt:   started.Add(90 * time.Second),
		CollectionID: "vs-1",
		New:          3,
		Updated:      1,
		Skipped:      12,
		Failed:       0,
	}
	if err := ledger.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}

	got := runs[0]
	if got.ID == 0 {
		t.Error("row id not assigned")
	}
	if !got.StartedAt.Equal(run.StartedAt) || !got.FinishedAt.Equal(run.FinishedAt) {
		t.Errorf("timestamps = %v / %v, want %v / %v",
			got.StartedAt, got.FinishedAt, run.StartedAt, run.FinishedAt)
	}
	if got.CollectionID != "vs-1" {
		t.Errorf("CollectionID = %q", got.CollectionID)
	}
	if got.New != 3 || got.Updated != 1 || got.Skipped != 12 || got.Failed != 0 {
		t.Errorf("counts = %+v", got)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty", got.Error)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	ledger, _ := testLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := Run{
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			FinishedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			CollectionID: "vs-1",
			New:          i,
		}
		if err := ledger.Record(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].New != 2 || runs[2].New != 0 {
		t.Errorf("runs not newest first: %+v", runs)
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	ledger, _ := testLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := ledger.Record(ctx, Run{
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := ledger.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestRecordPreservesError(t *testing.T) {
	ledger, _ := testLedger(t)
	ctx := context.Background()

	run := Run{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Error:      "strict mode: no collection id configured",
	}
	if err := ledger.Record(ctx, run); err != nil {
		t.Fatal(err)
	}

	runs, err := ledger.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Error != run.Error {
		t.Errorf("Error = %q, want %q", runs[0].Error, run.Error)
	}
}

func TestRecentEmptyLedger(t *testing.T) {
	ledger, _ := testLedger(t)

	runs, err := ledger.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Record(context.Background(), Run{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	// Reopening must keep existing rows.
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	runs, err := second.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}
