// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Fingerprints records the content digest last successfully indexed for
// each artifact name. An artifact whose current digest matches its record
// is skipped on the next run.
type Fingerprints struct {
	path    string
	digests map[string]string
}

// LoadFingerprints reads dir/fingerprints.json. A missing document yields
// an empty store; a document that exists but cannot be parsed is an error
// so a damaged ledger never silently reindexes the whole snapshot.
func LoadFingerprints(dir string) (*Fingerprints, error) {
	f := &Fingerprints{
		path:    filepath.Join(dir, FingerprintsName),
		digests: make(map[string]string),
	}

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, &f.digests); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return f, nil
}

// Get returns the recorded digest for name.
func (f *Fingerprints) Get(name string) (string, bool) {
	digest, ok := f.digests[name]
	return digest, ok
}

// Set records the digest for name, replacing any prior record.
func (f *Fingerprints) Set(name, digest string) {
	f.digests[name] = digest
}

// Len returns the number of recorded artifacts.
func (f *Fingerprints) Len() int {
	return len(f.digests)
}

// All returns a copy of the digest table.
func (f *Fingerprints) All() map[string]string {
	out := make(map[string]string, len(f.digests))
	for name, digest := range f.digests {
		out[name] = digest
	}
	return out
}

// Names returns the recorded artifact names, sorted.
func (f *Fingerprints) Names() []string {
	names := make([]string, 0, len(f.digests))
	for name := range f.digests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Persist rewrites the document atomically.
func (f *Fingerprints) Persist() error {
	data, err := json.MarshalIndent(f.digests, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling fingerprints: %w", err)
	}
	return writeDocument(f.path, data)
}
