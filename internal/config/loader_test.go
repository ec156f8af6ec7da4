package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgconfig "github.com/horizen-tools/poolscope/pkg/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
node:
  rpc_url: http://localhost:8231
  username: user
  password: pass
  timeout: 15s
sync:
  genesis_height: 1
  chunk_size: 500
store:
  backend: csv
  csv_path: pool.csv
logging:
  default_level: debug
  component_levels:
    rpc-client: warn
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8231", cfg.Node.RPCURL)
	require.Equal(t, 15*time.Second, cfg.Node.Timeout.Duration)
	require.Equal(t, uint64(500), cfg.Sync.ChunkSize)
	require.Equal(t, "pool.csv", cfg.Store.CSVPath)
	require.Equal(t, "warn", cfg.Logging.GetComponentLevel("rpc-client"))
	require.Equal(t, "debug", cfg.Logging.GetComponentLevel("synchronizer"))
}

func TestLoadFromFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json", `{
  "node": {"rpc_url": "http://localhost:8231"},
  "store": {"backend": "sqlite", "db": {"path": "pool.db"}}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, pkgconfig.BackendSQLite, cfg.Store.Backend)
	require.Equal(t, "pool.db", cfg.Store.DB.Path)
}

func TestLoadFromFile_TOML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.toml", `
[node]
rpc_url = "http://localhost:8231"
timeout = "20s"

[sync]
genesis_height = 100
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, cfg.Node.Timeout.Duration)
	require.Equal(t, uint64(100), cfg.Sync.GenesisHeight)
}

func TestLoadFromFile_DefaultsApplied(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
node:
  rpc_url: http://localhost:8231
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// Unset sections and fields fall back to defaults.
	require.Equal(t, pkgconfig.BackendCSV, cfg.Store.Backend)
	require.Equal(t, "mainnet_shielded_pool.csv", cfg.Store.CSVPath)
	require.Equal(t, uint64(1000), cfg.Sync.ChunkSize)
	require.Equal(t, 10*time.Second, cfg.Node.Timeout.Duration)
	require.NotNil(t, cfg.Node.Retry)
	require.Equal(t, 5, cfg.Node.Retry.MaxAttempts)
	require.NotNil(t, cfg.Verify)
	require.Equal(t, pkgconfig.DefaultDropTolerance, cfg.Verify.DropTolerance)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "missing rpc_url",
			file:    "config.yaml",
			content: "sync:\n  genesis_height: 1\n",
		},
		{
			name:    "unknown store backend",
			file:    "config.yaml",
			content: "node:\n  rpc_url: http://x\nstore:\n  backend: postgres\n",
		},
		{
			name:    "unknown logging component",
			file:    "config.yaml",
			content: "node:\n  rpc_url: http://x\nlogging:\n  component_levels:\n    nonsense: debug\n",
		},
		{
			name:    "malformed yaml",
			file:    "config.yaml",
			content: "node: [\n",
		},
		{
			name:    "negative drop tolerance",
			file:    "config.yaml",
			content: "node:\n  rpc_url: http://x\nverify:\n  drop_tolerance: \"-5\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadFromFile(path)
			require.Error(t, err)
		})
	}
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.ini", "[node]\n")
	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported config file format")
}
