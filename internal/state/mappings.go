// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// MappingRecord ties an artifact name to the index entry that currently
// carries its content.
type MappingRecord struct {
	// EntryID is the remote identifier of the indexed entry.
	EntryID string `json:"remote_entry_id"`

	// CollectionID is the collection the entry was ingested into.
	CollectionID string `json:"owning_collection_id"`

	// IngestedAt is when the entry reached a terminal indexed status.
	IngestedAt time.Time `json:"ingested_at"`
}

// Mappings records, per artifact name, which remote entry holds its
// content. The reconciler uses it to delete superseded entries before
// re-ingesting changed artifacts.
type Mappings struct {
	path    string
	records map[string]MappingRecord
}

// LoadMappings reads dir/mappings.json. A missing document yields an
// empty store; a document that exists but cannot be parsed is an error.
func LoadMappings(dir string) (*Mappings, error) {
	m := &Mappings{
		path:    filepath.Join(dir, MappingsName),
		records: make(map[string]MappingRecord),
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.path, err)
	}
	if err := json.Unmarshal(data, &m.records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.path, err)
	}
	return m, nil
}

// Get returns the mapping recorded for name.
func (m *Mappings) Get(name string) (MappingRecord, bool) {
	rec, ok := m.records[name]
	return rec, ok
}

// Set records the mapping for name, replacing any prior record.
func (m *Mappings) Set(name string, rec MappingRecord) {
	m.records[name] = rec
}

// Len returns the number of mapped artifacts.
func (m *Mappings) Len() int {
	return len(m.records)
}

// All returns a copy of the mapping table.
func (m *Mappings) All() map[string]MappingRecord {
	out := make(map[string]MappingRecord, len(m.records))
	for name, rec := range m.records {
		out[name] = rec
	}
	return out
}

// Names returns the mapped artifact names, sorted.
func (m *Mappings) Names() []string {
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntryIDs returns the set of entry identifiers present in the table.
// The entries command uses it to spot remote entries nothing maps to.
func (m *Mappings) EntryIDs() map[string]bool {
	out := make(map[string]bool, len(m.records))
	for _, rec := range m.records {
		out[rec.EntryID] = true
	}
	return out
}

// Persist rewrites the document atomically.
func (m *Mappings) Persist() error {
	data, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling mappings: %w", err)
	}
	return writeDocument(m.path, data)
}
