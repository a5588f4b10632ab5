// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials from a directory of plain-text
// files, with an environment-variable fallback. Each file in the directory
// is one secret: the filename is the key name and the file contents
// (trimmed) are the value. Keys that have no file may instead be supplied
// through the environment.
//
// Supported key files: openai-api-key, spaces-access-key, spaces-secret-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envFallback maps a key file name to the environment variable consulted
// when the file is absent.
var envFallback = map[string]string{
	"openai-api-key":    "OPENAI_API_KEY",
	"spaces-access-key": "SPACES_ACCESS_KEY",
	"spaces-secret-key": "SPACES_SECRET_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents. Keys from envFallback that have no file are filled from the
// environment. A missing directory is not an error; unreadable files
// produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	secrets := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	for key, env := range envFallback {
		if _, ok := secrets[key]; ok {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			secrets[key] = value
		}
	}

	return secrets, nil
}
