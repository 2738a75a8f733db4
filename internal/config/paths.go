package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveRuntimePath resolves a runtime directory against the working directory,
// falling back to fallbackSubdir when raw is empty.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	base := "."
	if wd, err := os.Getwd(); err == nil && wd != "" {
		base = wd
	}
	return filepath.Clean(filepath.Join(base, target))
}
