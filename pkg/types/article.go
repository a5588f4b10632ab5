// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docsync pipeline.
package types

// Article is one knowledge-base article as returned by the help-center API.
type Article struct {
	// ID is the numeric article identifier assigned by the help center.
	ID int64 `json:"id" yaml:"id"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// BodyHTML is the rendered article body as served by the API.
	BodyHTML string `json:"body_html" yaml:"body_html"`

	// URL is the public link to the article.
	URL string `json:"url" yaml:"url"`

	// CreatedAt and UpdatedAt are help-center timestamps, kept in the
	// RFC 3339 form the API returns.
	CreatedAt string `json:"created_at" yaml:"created_at"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// Artifact is one materialized article file within a snapshot.
// Per docs/ARCHITECTURE § Snapshot.
type Artifact struct {
	// Name is the artifact identifier: the file's base name, unique
	// within the snapshot.
	Name string `json:"name" yaml:"name"`

	// Path is the artifact's location on disk.
	Path string `json:"path" yaml:"path"`
}
