// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDigest(t *testing.T) {
	// Known SHA-256 vector.
	got := Digest([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("Digest(hello) = %s, want %s", got, want)
	}

	if Digest([]byte("hello")) != Digest([]byte("hello")) {
		t.Error("Digest is not deterministic")
	}
	if Digest([]byte("hello")) == Digest([]byte("hello ")) {
		t.Error("Digest should differ for different content")
	}
}

func TestLoadFingerprintsMissing(t *testing.T) {
	f, err := LoadFingerprints(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFingerprints: %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", f.Len())
	}
	if _, ok := f.Get("anything"); ok {
		t.Error("Get on empty store should report absence")
	}
}

func TestFingerprintsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	f, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatalf("LoadFingerprints: %v", err)
	}
	f.Set("getting-started.md", "aaa111")
	f.Set("billing-faq.md", "bbb222")
	if err := f.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	reloaded, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d entries, want 2", reloaded.Len())
	}
	digest, ok := reloaded.Get("getting-started.md")
	if !ok || digest != "aaa111" {
		t.Errorf("Get(getting-started.md) = %q, %v; want aaa111, true", digest, ok)
	}

	// Overwrite and persist again.
	reloaded.Set("getting-started.md", "ccc333")
	if err := reloaded.Persist(); err != nil {
		t.Fatalf("second Persist: %v", err)
	}
	final, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatalf("second reload: %v", err)
	}
	if digest, _ := final.Get("getting-started.md"); digest != "ccc333" {
		t.Errorf("after overwrite Get = %q, want ccc333", digest)
	}
}

func TestLoadFingerprintsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FingerprintsName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFingerprints(dir)
	if err == nil {
		t.Fatal("expected error for corrupt document")
	}
	if !strings.Contains(err.Error(), FingerprintsName) {
		t.Errorf("error should name the document, got: %v", err)
	}
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()

	f, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatal(err)
	}
	f.Set("a.md", "digest")
	if err := f.Persist(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".state-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestPersistCreatesStateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	f, err := LoadFingerprints(dir)
	if err != nil {
		t.Fatal(err)
	}
	f.Set("a.md", "digest")
	if err := f.Persist(); err != nil {
		t.Fatalf("Persist into missing directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FingerprintsName)); err != nil {
		t.Errorf("document not created: %v", err)
	}
}

func TestMappingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ingested := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	m, err := LoadMappings(dir)
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}
	m.Set("getting-started.md", MappingRecord{
		EntryID:      "entry-123",
		CollectionID: "coll-abc",
		IngestedAt:   ingested,
	})
	if err := m.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	reloaded, err := LoadMappings(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec, ok := reloaded.Get("getting-started.md")
	if !ok {
		t.Fatal("mapping lost on reload")
	}
	if rec.EntryID != "entry-123" || rec.CollectionID != "coll-abc" {
		t.Errorf("reloaded record = %+v", rec)
	}
	if !rec.IngestedAt.Equal(ingested) {
		t.Errorf("IngestedAt = %v, want %v", rec.IngestedAt, ingested)
	}
}

// The document layout is a compatibility surface: other tooling reads
// these files, so the JSON keys are pinned.
func TestMappingsDocumentFormat(t *testing.T) {
	dir := t.TempDir()

	m, err := LoadMappings(dir)
	if err != nil {
		t.Fatal(err)
	}
	m.Set("a.md", MappingRecord{
		EntryID:      "entry-1",
		CollectionID: "coll-1",
		IngestedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err := m.Persist(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, MappingsName))
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	rec := raw["a.md"]
	if rec == nil {
		t.Fatal("artifact key missing from document")
	}
	for _, key := range []string{"remote_entry_id", "owning_collection_id", "ingested_at"} {
		if _, ok := rec[key]; !ok {
			t.Errorf("document record missing key %q; has %v", key, rec)
		}
	}
	if rec["remote_entry_id"] != "entry-1" {
		t.Errorf("remote_entry_id = %v, want entry-1", rec["remote_entry_id"])
	}
}

func TestMappingsEntryIDs(t *testing.T) {
	m, err := LoadMappings(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m.Set("a.md", MappingRecord{EntryID: "entry-1"})
	m.Set("b.md", MappingRecord{EntryID: "entry-2"})

	ids := m.EntryIDs()
	if len(ids) != 2 || !ids["entry-1"] || !ids["entry-2"] {
		t.Errorf("EntryIDs = %v", ids)
	}
}

func TestLoadMappingsCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MappingsName), []byte("]["), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadMappings(dir)
	if err == nil {
		t.Fatal("expected error for corrupt document")
	}
	if !strings.Contains(err.Error(), MappingsName) {
		t.Errorf("error should name the document, got: %v", err)
	}
}

func TestAllReturnsCopies(t *testing.T) {
	f, err := LoadFingerprints(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f.Set("a.md", "digest")

	all := f.All()
	all["a.md"] = "tampered"
	if digest, _ := f.Get("a.md"); digest != "digest" {
		t.Error("All must return a copy, not the live table")
	}
}

func TestNamesSorted(t *testing.T) {
	f, err := LoadFingerprints(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f.Set("zeta.md", "z")
	f.Set("alpha.md", "a")
	f.Set("mid.md", "m")

	names := f.Names()
	want := []string{"alpha.md", "mid.md", "zeta.md"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names() = %v, want %v", names, want)
			break
		}
	}

	m, err := LoadMappings(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m.Set("b.md", MappingRecord{EntryID: "e2"})
	m.Set("a.md", MappingRecord{EntryID: "e1"})
	got := m.Names()
	if len(got) != 2 || got[0] != "a.md" || got[1] != "b.md" {
		t.Errorf("Names() = %v, want [a.md b.md]", got)
	}
}
