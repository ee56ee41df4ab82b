package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: /var/lib/macrosnap/data.db
remote:
  base_url: https://records.example.com
  zone: custom-zone
  timeout_ms: 5000
sync:
  batch_size: 50
  interval_sec: 300
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/macrosnap/data.db", cfg.Database.Path)
	assert.Equal(t, "https://records.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "custom-zone", cfg.Remote.Zone)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, 50, cfg.Sync.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
remote:
  base_url: http://localhost:8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "macrosnap.db", cfg.Database.Path)
	assert.Equal(t, "macrosnap", cfg.Remote.Zone)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json",
		`{"remote": {"base_url": "https://records.example.com"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://records.example.com", cfg.Remote.BaseURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing base url", "config.yaml", `database: {path: x.db}`},
		{"bad url scheme", "config.yaml", `remote: {base_url: "ftp://x"}`},
		{"bad log level", "config.yaml", "remote: {base_url: \"http://x\"}\nlogging: {level: loud}"},
		{"unknown extension", "config.toml", `whatever`},
		{"malformed yaml", "config.yaml", `remote: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
