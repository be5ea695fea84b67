package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/infrastructure"
	"keygate/pkg/contracts"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "keygate", cmd.Use)
	assert.NotNil(t, cmd.RunE, "bare invocation serves")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"serve", "sweep", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	portFlag := serve.Flags().Lookup("port")
	require.NotNil(t, portFlag)
	assert.Equal(t, "0", portFlag.DefValue)
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "text",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, contracts.GetVersionString()))
			},
		},
		{
			name: "json",
			args: []string{"version", "--json"},
			check: func(t *testing.T, out string) {
				var info contracts.VersionInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, contracts.Version, info.Version)
				assert.Equal(t, contracts.APIVersion, info.APIVersion)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			tt.check(t, out.String())
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keygate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSweepCommand(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	dbPath := filepath.Join(t.TempDir(), "keys.db")
	path := writeConfig(t, `
logging:
  level: error
store:
  driver: sqlite
  path: `+dbPath+`
telemetry:
  metrics_enabled: false
`)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "sweep"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "removed 0 expired key(s)\n", out.String())
	assert.FileExists(t, dbPath)
}

func TestSweepCommand_BadConfig(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: cassandra\n")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "sweep"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestServeCommand_InvalidPort(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "serve", "--port", "70000"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}
