package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "docsync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for fetching articles from the help-center API.
// Per docs/ARCHITECTURE § Fetch.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIURL is the help-center article listing endpoint
	// (e.g. "https://example.zendesk.com/api/v2/help_center/en-us/articles.json").
	APIURL string `json:"api_url" yaml:"api_url"`

	// PageSize is the number of articles requested per listing page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxArticles caps the number of articles fetched in one run; 0 means no cap.
	MaxArticles int `json:"max_articles" yaml:"max_articles"`

	// PageDelay is the delay between consecutive listing page requests (default 500ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// SnapshotConfig holds settings for the local article snapshot.
type SnapshotConfig struct {
	// Dir is the directory holding materialized article files (default "articles").
	Dir string `json:"dir" yaml:"dir"`
}

// IndexConfig holds settings for the remote semantic-search index.
// Per docs/ARCHITECTURE § Remote Index.
type IndexConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the index API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests to the index API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CollectionID pins the collection to reconcile into. When empty, a
	// collection named CollectionName is created.
	CollectionID string `json:"collection_id" yaml:"collection_id"`

	// CollectionName is the name given to a collection created when
	// CollectionID is empty or unusable.
	CollectionName string `json:"collection_name" yaml:"collection_name"`

	// Strict forbids collection creation: a missing or unusable
	// CollectionID aborts the run instead.
	Strict bool `json:"strict" yaml:"strict"`

	// PollInterval is the delay between entry status polls (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// PollTimeout bounds how long one entry may stay pending (default 5m).
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout"`
}

// StateConfig holds settings for durable sync state.
// Per docs/ARCHITECTURE § State.
type StateConfig struct {
	// Dir is the directory holding the fingerprint and mapping documents
	// and the run lock (default "state").
	Dir string `json:"dir" yaml:"dir"`

	// LedgerPath is the SQLite run-ledger path (default "<Dir>/runs.db").
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`
}

// LogConfig holds settings for run logging.
type LogConfig struct {
	// Dir is the directory holding log files (default "logs").
	Dir string `json:"dir" yaml:"dir"`

	// Level is the minimum level written: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// Console mirrors log records to stderr in addition to the log files.
	Console bool `json:"console" yaml:"console"`
}

// BackupConfig holds settings for the S3-compatible state backup.
// Leaving the fields empty disables backup.
type BackupConfig struct {
	// Endpoint is the object-storage host (e.g. "nyc3.digitaloceanspaces.com").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Region is the bucket region (e.g. "nyc3").
	Region string `json:"region" yaml:"region"`

	// Bucket is the bucket that holds state and log objects.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is prepended to every object key (default "docsync").
	Prefix string `json:"prefix" yaml:"prefix"`

	// AccessKey and SecretKey authenticate against the endpoint.
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`

	// Insecure switches object-storage requests to plain HTTP. Used by
	// tests against local fixtures.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

// SyncConfig groups all component configurations for a sync run.
type SyncConfig struct {
	Source   SourceConfig   `json:"source" yaml:"source"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Index    IndexConfig    `json:"index" yaml:"index"`
	State    StateConfig    `json:"state" yaml:"state"`
	Logs     LogConfig      `json:"logs" yaml:"logs"`
	Backup   BackupConfig   `json:"backup" yaml:"backup"`
}
