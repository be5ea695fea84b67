package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// configSearchPaths lists the locations tried for the config file, in
// order. The working directory wins over the executable directory so a
// deployment can override the file shipped next to the binary.
func configSearchPaths() []string {
	locations := []string{
		ConfigFileName,
		filepath.Join("configs", ConfigFileName),
	}

	if dir, err := ExecutableDir(); err == nil {
		locations = append(locations,
			filepath.Join(dir, ConfigFileName),
			filepath.Join(dir, "configs", ConfigFileName),
		)
	}

	return locations
}

// getConfigFilePath returns the first config file that exists, or "" when
// there is none and only the environment applies.
func getConfigFilePath() string {
	for _, location := range configSearchPaths() {
		if info, err := os.Stat(location); err == nil && !info.IsDir() {
			return location
		}
	}
	return ""
}
