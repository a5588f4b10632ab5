// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backup mirrors state documents and run logs into an
// S3-compatible object store.
// Implements docs/ARCHITECTURE § Object-Store Backup.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/docsync/internal/logging"
	"github.com/pdiddy/docsync/pkg/types"
)

const (
	lastRunKey = "last_run.log"
	dailyKey   = "daily.log"

	// Seven days is the longest expiry DigitalOcean Spaces accepts.
	presignExpiry = 7 * 24 * time.Hour
)

// Configured reports whether cfg names an endpoint, a bucket, and both
// credentials. The backup phases are skipped entirely when it returns
// false.
func Configured(cfg types.BackupConfig) bool {
	return cfg.Endpoint != "" && cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != ""
}

// Spaces copies files between the local disk and one object-store
// bucket. Every operation is best-effort: failures are logged, never
// escalated to the run.
type Spaces struct {
	client *minio.Client
	bucket string
	prefix string
	log    *slog.Logger
}

// New builds a Spaces client from cfg. Endpoint is a bare host such as
// nyc3.digitaloceanspaces.com.
func New(cfg types.BackupConfig, log *slog.Logger) (*Spaces, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("building object store client: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Spaces{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
	}, nil
}

func (s *Spaces) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

// PullState downloads each named state document that is missing
// locally. A local copy always wins over the remote one. Returns the
// number of documents downloaded.
func (s *Spaces) PullState(ctx context.Context, dir string, names []string) int {
	downloaded := 0
	for _, name := range names {
		local := filepath.Join(dir, name)
		if _, err := os.Stat(local); err == nil {
			s.log.Info("state document already present locally", "name", name)
			continue
		}

		err := s.client.FGetObject(ctx, s.bucket, s.key(name), local, minio.GetObjectOptions{})
		switch {
		case err == nil:
			s.log.Info("downloaded state document", "name", name)
			downloaded++
		case minio.ToErrorResponse(err).Code == "NoSuchKey":
			s.log.Info("state document not in object store, will create", "name", name)
		default:
			s.log.Warn("downloading state document failed", "name", name, "error", err)
		}
	}
	return downloaded
}

// PushState uploads each named state document that exists locally.
// Returns the number of documents uploaded.
func (s *Spaces) PushState(ctx context.Context, dir string, names []string) int {
	uploaded := 0
	for _, name := range names {
		local := filepath.Join(dir, name)
		if _, err := os.Stat(local); err != nil {
			s.log.Warn("state document not found locally", "name", name)
			continue
		}

		_, err := s.client.FPutObject(ctx, s.bucket, s.key(name), local, minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			s.log.Warn("uploading state document failed", "name", name, "error", err)
			continue
		}
		s.log.Info("uploaded state document", "name", name)
		uploaded++
	}
	return uploaded
}

// LogURLs carries presigned download links for the shipped logs. A
// field is empty when the corresponding upload did not happen.
type LogURLs struct {
	LastRun string
	Daily   string
}

// ShipLogs uploads the finished run's log from dir. The remote
// last_run.log is overwritten, and the same content is appended to the
// remote daily.log, which grows into the union of all shipped runs.
// Links are presigned for seven days.
func (s *Spaces) ShipLogs(ctx context.Context, dir string) LogURLs {
	var urls LogURLs

	lastRun := filepath.Join(dir, logging.LastRunName)
	data, err := os.ReadFile(lastRun)
	if err != nil || len(data) == 0 {
		s.log.Warn("run log missing or empty, skipping log shipping", "path", lastRun)
		return urls
	}

	if _, err := s.client.FPutObject(ctx, s.bucket, s.key(lastRunKey), lastRun, minio.PutObjectOptions{
		ContentType: "text/plain",
	}); err != nil {
		s.log.Warn("uploading run log failed", "error", err)
	} else {
		s.log.Info("uploaded run log", "bytes", len(data))
		urls.LastRun = s.presign(ctx, lastRunKey)
	}

	existing, err := s.download(ctx, dailyKey)
	if err != nil {
		s.log.Warn("downloading daily log failed, starting fresh", "error", err)
	}
	merged := append(existing, data...)
	if _, err := s.client.PutObject(ctx, s.bucket, s.key(dailyKey), bytes.NewReader(merged),
		int64(len(merged)), minio.PutObjectOptions{ContentType: "text/plain"}); err != nil {
		s.log.Warn("uploading daily log failed", "error", err)
	} else {
		s.log.Info("uploaded daily log", "bytes", len(merged))
		urls.Daily = s.presign(ctx, dailyKey)
	}

	return urls
}

// download returns the named object's content, or nil when the key
// does not exist.
func (s *Spaces) download(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *Spaces) presign(ctx context.Context, name string) string {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.key(name), presignExpiry, nil)
	if err != nil {
		s.log.Warn("presigning download link failed", "name", name, "error", err)
		return ""
	}
	return u.String()
}
