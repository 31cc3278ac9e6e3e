// Package config loads server settings from defaults, an optional YAML
// file, and PERUDO_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server holds everything the lobby server needs to run.
type Server struct {
	// Port is the TCP port the lobby listens on.
	Port int `yaml:"port" env:"PERUDO_PORT"`

	// MaxPlayersPerGame caps the player mix a CreateRoom may request.
	MaxPlayersPerGame int `yaml:"max_players_per_game" env:"PERUDO_MAX_PLAYERS_PER_GAME"`

	// MaxConcurrentGames caps the number of live rooms.
	MaxConcurrentGames int `yaml:"max_concurrent_games" env:"PERUDO_MAX_CONCURRENT_GAMES"`

	// IOTimeout bounds every single read or write on a connection. It is
	// also how long a remote player gets to answer an action request.
	IOTimeout time.Duration `yaml:"io_timeout" env:"PERUDO_IO_TIMEOUT"`
}

// DefaultServer returns the settings used when nothing is configured.
func DefaultServer() Server {
	return Server{
		Port:               7777,
		MaxPlayersPerGame:  8,
		MaxConcurrentGames: 32,
		IOTimeout:          10 * time.Second,
	}
}

// Load builds a Server config: defaults, overridden by the YAML file at
// path when path is non-empty, overridden by environment variables.
func Load(path string) (Server, error) {
	cfg := DefaultServer()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Server{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Server{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Server) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.MaxPlayersPerGame < 2:
		return fmt.Errorf("max_players_per_game must be at least 2, got %d", c.MaxPlayersPerGame)
	case c.MaxConcurrentGames < 1:
		return fmt.Errorf("max_concurrent_games must be at least 1, got %d", c.MaxConcurrentGames)
	case c.IOTimeout <= 0:
		return fmt.Errorf("io_timeout must be positive, got %s", c.IOTimeout)
	}
	return nil
}
