package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTP.Address)
	assert.Equal(t, []string{"*"}, cfg.Server.HTTP.AllowedOrigins)
	assert.Equal(t, 100, cfg.Server.GRPC.MaxConcurrentStreams)
	assert.Equal(t, "json", cfg.Server.WebSocket.Codec)
	assert.Equal(t, 256, cfg.Server.WebSocket.SendBuffer)
	assert.Equal(t, 10*time.Second, cfg.Server.WebSocket.WriteTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Zero(t, cfg.Decision.Timeout)
	assert.False(t, cfg.Sandbox.Enabled)
	assert.Equal(t, 4, cfg.Sandbox.HandSize)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTP.Address)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  websocket:
    codec: proto
decision:
  timeout: 30s
  auto_target: true
sandbox:
  enabled: true
  players: [a, b]
  hand_size: 2
`), 0o600))
	t.Setenv("SGS_SERVER_HTTP_ADDRESS", "127.0.0.1:9999")
	t.Setenv("SGS_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.HTTP.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "proto", cfg.Server.WebSocket.Codec)
	assert.Equal(t, 30*time.Second, cfg.Decision.Timeout)
	assert.True(t, cfg.Decision.AutoTarget)
	assert.True(t, cfg.Sandbox.Enabled)
	assert.Equal(t, []string{"a", "b"}, cfg.Sandbox.Players)
	assert.Equal(t, 2, cfg.Sandbox.HandSize)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown codec", func(c *Config) { c.Server.WebSocket.Codec = "xml" }},
		{"empty http address", func(c *Config) { c.Server.HTTP.Address = "" }},
		{"negative decision timeout", func(c *Config) { c.Decision.Timeout = -time.Second }},
		{"negative write timeout", func(c *Config) { c.Server.WebSocket.WriteTimeout = -time.Second }},
		{"zero send buffer", func(c *Config) { c.Server.WebSocket.SendBuffer = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }},
		{"sandbox with one player", func(c *Config) {
			c.Sandbox.Enabled = true
			c.Sandbox.Players = []string{"a"}
		}},
		{"sandbox with duplicate players", func(c *Config) {
			c.Sandbox.Enabled = true
			c.Sandbox.Players = []string{"a", "a"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
