// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists the sync ledger between runs: content
// fingerprints and remote index mappings, kept as JSON documents that are
// rewritten atomically at the end of a run.
// See docs/ARCHITECTURE § State.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Document names inside the configured state directory. LockName is the
// advisory lock file that serializes runs against one state directory.
const (
	FingerprintsName = "fingerprints.json"
	MappingsName     = "mappings.json"
	LockName         = "docsync.lock"
)

// Digest returns the hex-encoded SHA-256 fingerprint of artifact content.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeDocument replaces the document at path via a temp file in the same
// directory, syncing before the rename so a crash cannot leave a partial
// or truncated document behind.
func writeDocument(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing state document: %w", writeErr)
	}
	if syncErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing state document: %w", syncErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
