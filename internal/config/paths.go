package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveRuntimePath resolves raw against the working directory, falling back to
// fallbackSubdir when raw is empty. Absolute paths are returned cleaned.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}

	base, err := os.Getwd()
	if err != nil || strings.TrimSpace(base) == "" {
		base = "."
	}
	return filepath.Clean(filepath.Join(base, target))
}
