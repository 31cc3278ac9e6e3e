package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: 9000\nmax_players_per_game: 6\nio_timeout: 30s\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 6, cfg.MaxPlayersPerGame)
	assert.Equal(t, 30*time.Second, cfg.IOTimeout)
	assert.Equal(t, DefaultServer().MaxConcurrentGames, cfg.MaxConcurrentGames,
		"unset keys keep their defaults")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o600))
	t.Setenv("PERUDO_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Server)
		ok     bool
	}{
		{"defaults", func(*Server) {}, true},
		{"ephemeral port", func(c *Server) { c.Port = 0 }, true},
		{"negative port", func(c *Server) { c.Port = -1 }, false},
		{"port too high", func(c *Server) { c.Port = 70000 }, false},
		{"one player games", func(c *Server) { c.MaxPlayersPerGame = 1 }, false},
		{"no games", func(c *Server) { c.MaxConcurrentGames = 0 }, false},
		{"zero timeout", func(c *Server) { c.IOTimeout = 0 }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultServer()
			c.mutate(&cfg)
			err := cfg.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
