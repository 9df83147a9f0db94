// pkg/shared/paths.go

package shared

import (
	"os"
	"path/filepath"
)

func GetEnvOrDefault(envVar, fallback string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return fallback
}

// ConfigPath resolves file under $XDG_CONFIG_HOME/eos-sanitizer.
func ConfigPath(file string) string {
	base := GetEnvOrDefault("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config"))
	return filepath.Join(base, AppID, file)
}

// StatePath resolves file under $XDG_STATE_HOME/eos-sanitizer.
func StatePath(file string) string {
	base := GetEnvOrDefault("XDG_STATE_HOME", filepath.Join(os.Getenv("HOME"), ".local", "state"))
	return filepath.Join(base, AppID, file)
}

// DataPath resolves file under $XDG_DATA_HOME/eos-sanitizer.
func DataPath(file string) string {
	base := GetEnvOrDefault("XDG_DATA_HOME", filepath.Join(os.Getenv("HOME"), ".local", "share"))
	return filepath.Join(base, AppID, file)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), DirPermStandard)
}
