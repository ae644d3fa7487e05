package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults for the Spotify endpoints. Overridable from config for testing
// against a local stand-in service.
const (
	defaultAuthorizeURL = "https://accounts.spotify.com/authorize"
	defaultTokenURL     = "https://accounts.spotify.com/api/token"
	defaultAPIURL       = "https://api.spotify.com/v1"

	defaultRedirectPort   = 9847
	defaultRequestTimeout = 15 // seconds
)

type Config struct {
	Spotify SpotifyConfig `koanf:"spotify"`
	Game    GameConfig    `koanf:"game"`
}

// SpotifyConfig holds credentials and endpoints for the streaming service.
type SpotifyConfig struct {
	ClientID       string `koanf:"client_id"`
	RedirectPort   int    `koanf:"redirect_port"`   // local callback server port
	AuthorizeURL   string `koanf:"authorize_url"`   // override for tests
	TokenURL       string `koanf:"token_url"`       // override for tests
	APIURL         string `koanf:"api_url"`         // override for tests
	LinkURL        string `koanf:"link_url"`        // playback device bridge, e.g. "ws://localhost:5870/remote"
	RequestTimeout int    `koanf:"request_timeout"` // seconds
}

// GameConfig holds the turn-engine capability flags.
// The skip rules varied across iterations of the game; both default to off,
// matching the latest behavior (skip only while the track is playing).
type GameConfig struct {
	SkipWhilePaused   bool `koanf:"skip_while_paused"`
	SkipWhileRevealed bool `koanf:"skip_while_revealed"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Spotify.LinkURL = strings.TrimSuffix(cfg.Spotify.LinkURL, "/")
	cfg.Spotify.APIURL = strings.TrimSuffix(cfg.Spotify.APIURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/blindtest/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "blindtest", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasClientID returns true if a Spotify application is configured.
func (c *Config) HasClientID() bool {
	return c.Spotify.ClientID != ""
}

// GetSpotifyConfig returns the Spotify configuration with defaults applied.
func (c *Config) GetSpotifyConfig() SpotifyConfig {
	cfg := c.Spotify

	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = defaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.RedirectPort <= 0 {
		cfg.RedirectPort = defaultRedirectPort
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return cfg
}

// Timeout returns the request timeout as a duration.
func (c SpotifyConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
