package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the rest of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir), "executable dir should be absolute")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigSearchPaths(t *testing.T) {
	paths := configSearchPaths()
	require.GreaterOrEqual(t, len(paths), 2)

	// working directory candidates come first
	assert.Equal(t, ConfigFileName, paths[0])
	assert.Equal(t, filepath.Join("configs", ConfigFileName), paths[1])

	exeDir, err := ExecutableDir()
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(exeDir, ConfigFileName))
}

func TestGetConfigFilePath(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string)
		expected string
	}{
		{
			name:     "nothing found",
			setup:    func(t *testing.T, dir string) {},
			expected: "",
		},
		{
			name: "working directory",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{}"), 0644))
			},
			expected: ConfigFileName,
		},
		{
			name: "configs subdirectory",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", ConfigFileName), []byte("{}"), 0644))
			},
			expected: filepath.Join("configs", ConfigFileName),
		},
		{
			name: "root file wins over configs",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", ConfigFileName), []byte("{}"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{}"), 0644))
			},
			expected: ConfigFileName,
		},
		{
			name: "directory with the file name is skipped",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, ConfigFileName), 0755))
			},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			chdir(t, dir)

			assert.Equal(t, tt.expected, getConfigFilePath())
		})
	}
}

func TestLoad_DiscoversConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("server:\n  port: 8088\n"), 0644))
	chdir(t, dir)
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
}
