// Package paths resolves tilewm's XDG base directories.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "tilewm"

// ConfigFile returns $XDG_CONFIG_HOME/tilewm/config.yaml, or "" when no
// home directory is known.
func ConfigFile() string {
	dir := xdgDir("XDG_CONFIG_HOME", ".config")
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, appDir, "config.yaml")
}

// LogFile returns $XDG_STATE_HOME/tilewm/tilewm.log. Without a home
// directory it falls back to the system temp dir.
func LogFile() string {
	dir := xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appDir, "tilewm.log")
}

func xdgDir(env, fallback string) string {
	if dir := strings.TrimSpace(os.Getenv(env)); dir != "" {
		return filepath.Clean(ExpandHome(dir))
	}
	home := homeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, fallback)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return strings.TrimSpace(os.Getenv("HOME"))
	}
	return home
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := homeDir()
		if home == "" {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}
