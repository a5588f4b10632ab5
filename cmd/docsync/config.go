// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/docsync/pkg/types"
)

const defaultUserAgent = "docsync/0.1"

func setConfigDefaults() {
	viper.SetDefault("source.timeout", 15*time.Second)
	viper.SetDefault("source.user_agent", defaultUserAgent)
	viper.SetDefault("source.page_size", 100)
	viper.SetDefault("source.max_articles", 30)
	viper.SetDefault("source.page_delay", 500*time.Millisecond)

	viper.SetDefault("snapshot.dir", "articles")

	viper.SetDefault("index.base_url", "https://api.openai.com/v1")
	viper.SetDefault("index.timeout", 60*time.Second)
	viper.SetDefault("index.user_agent", defaultUserAgent)
	viper.SetDefault("index.collection_name", "Support Docs")
	viper.SetDefault("index.poll_interval", 2*time.Second)
	viper.SetDefault("index.poll_timeout", 5*time.Minute)

	viper.SetDefault("state.dir", "state")
	viper.SetDefault("logs.dir", "logs")
	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.console", true)

	viper.SetDefault("backup.region", "nyc3")
	viper.SetDefault("backup.prefix", "docsync")
}

// buildConfig assembles the full sync configuration from viper (config
// file, DOCSYNC_* environment, defaults). Credentials left empty by the
// config fall back to the secrets directory.
func buildConfig() types.SyncConfig {
	cfg := types.SyncConfig{
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: viper.GetString("source.user_agent"),
			},
			APIURL:      viper.GetString("source.api_url"),
			PageSize:    viper.GetInt("source.page_size"),
			MaxArticles: viper.GetInt("source.max_articles"),
			PageDelay:   viper.GetDuration("source.page_delay"),
		},
		Snapshot: types.SnapshotConfig{
			Dir: viper.GetString("snapshot.dir"),
		},
		Index: types.IndexConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("index.timeout"),
				UserAgent: viper.GetString("index.user_agent"),
			},
			BaseURL:        viper.GetString("index.base_url"),
			APIKey:         viper.GetString("index.api_key"),
			CollectionID:   viper.GetString("index.collection_id"),
			CollectionName: viper.GetString("index.collection_name"),
			Strict:         viper.GetBool("index.strict"),
			PollInterval:   viper.GetDuration("index.poll_interval"),
			PollTimeout:    viper.GetDuration("index.poll_timeout"),
		},
		State: types.StateConfig{
			Dir:        viper.GetString("state.dir"),
			LedgerPath: viper.GetString("state.ledger_path"),
		},
		Logs: types.LogConfig{
			Dir:     viper.GetString("logs.dir"),
			Level:   viper.GetString("logs.level"),
			Console: viper.GetBool("logs.console"),
		},
		Backup: types.BackupConfig{
			Endpoint:  viper.GetString("backup.endpoint"),
			Region:    viper.GetString("backup.region"),
			Bucket:    viper.GetString("backup.bucket"),
			Prefix:    viper.GetString("backup.prefix"),
			AccessKey: viper.GetString("backup.access_key"),
			SecretKey: viper.GetString("backup.secret_key"),
		},
	}

	if cfg.State.LedgerPath == "" {
		cfg.State.LedgerPath = filepath.Join(cfg.State.Dir, "runs.db")
	}

	if cfg.Index.APIKey == "" {
		cfg.Index.APIKey = loadedSecrets["openai-api-key"]
	}
	if cfg.Backup.AccessKey == "" {
		cfg.Backup.AccessKey = loadedSecrets["spaces-access-key"]
	}
	if cfg.Backup.SecretKey == "" {
		cfg.Backup.SecretKey = loadedSecrets["spaces-secret-key"]
	}

	return cfg
}
