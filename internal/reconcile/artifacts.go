// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docsync/pkg/types"
)

// ListArtifacts enumerates the Markdown artifacts in the snapshot
// directory, sorted by name. A missing directory is an empty snapshot,
// not an error.
func ListArtifacts(dir string) ([]types.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot directory %s: %w", dir, err)
	}

	var artifacts []types.Artifact
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		artifacts = append(artifacts, types.Artifact{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	return artifacts, nil
}
