// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore talks to the remote semantic-search index: named
// collections of indexed entries behind an OpenAI-compatible REST API.
// See docs/ARCHITECTURE § Remote Index.
package vectorstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that the collection or entry named in a request
// does not exist remotely. Callers that delete superseded entries treat
// it as already-done.
var ErrNotFound = errors.New("not found")

// Collection is a remote container of indexed entries.
type Collection struct {
	ID     string
	Name   string
	Status string
}

// Usable reports whether the collection can accept new entries.
func (c Collection) Usable() bool {
	return c.ID != "" && c.Status != "expired"
}

// Entry is one indexed document inside a collection.
type Entry struct {
	ID        string
	Status    string
	CreatedAt time.Time
}

// Service is the slice of the index API the reconciler depends on.
// Client implements it; tests substitute fakes.
type Service interface {
	// RetrieveCollection fetches a collection by id. A missing id yields
	// ErrNotFound.
	RetrieveCollection(ctx context.Context, id string) (Collection, error)

	// CreateCollection creates an empty collection with the given name.
	CreateCollection(ctx context.Context, name string) (Collection, error)

	// Ingest uploads content as a named entry into the collection and
	// blocks until the index reports a terminal status. A terminal
	// status other than completed is an error.
	Ingest(ctx context.Context, collectionID, name string, content []byte) (Entry, error)

	// DeleteEntry removes an entry from the collection. A missing entry
	// yields ErrNotFound.
	DeleteEntry(ctx context.Context, collectionID, entryID string) error
}
