// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads API keys from a directory holding one file per
// key. The file name is the key and the trimmed contents are the value,
// e.g. .secrets/openai-api-key.
package secrets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Load reads the files in dir whose names appear in known. A missing
// directory yields an empty map. Unknown files are logged at Warn and
// left unread. Key files open to group or other users are loaded with a
// warning. Unreadable and empty key files are skipped.
func Load(dir string, known []string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	keys := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !slices.Contains(known, name) {
			logger.Warn("ignoring unrecognized secret file", "name", name, "dir", dir)
			continue
		}

		if info, err := entry.Info(); err == nil && exposed(info.Mode()) {
			logger.Warn("secret file is readable by other users", "name", name, "mode", info.Mode().Perm().String())
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			keys[name] = value
		}
	}
	return keys, nil
}

func exposed(mode fs.FileMode) bool {
	return mode.Perm()&0o077 != 0
}
