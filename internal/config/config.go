// Package config loads VibeSync configuration from built-in defaults, an
// optional TOML file, an optional .env file and the process environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Model providers understood by the vibe resolver and emotion detector.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ErrMissingCredentials is returned when the catalog client id or secret is not configured.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET")

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
	Model   ModelConfig   `toml:"model"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CatalogConfig contains music catalog (Spotify) settings.
type CatalogConfig struct {
	ClientID          string        `toml:"client_id"`
	ClientSecret      string        `toml:"client_secret"`
	TokenURL          string        `toml:"token_url"`
	APIURL            string        `toml:"api_url"`
	Timeout           time.Duration `toml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	CacheToken        bool          `toml:"cache_token"`
}

// ModelConfig contains generative model settings.
type ModelConfig struct {
	Provider    string        `toml:"provider"`
	APIKey      string        `toml:"api_key"`
	TextModel   string        `toml:"text_model"`
	VisionModel string        `toml:"vision_model"`
	BaseURL     string        `toml:"base_url"`
	Timeout     time.Duration `toml:"timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Credentials holds the client-credentials pair for the catalog API.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Credentials returns the catalog client credentials.
// It is evaluated on demand so that missing credentials only surface when a
// playlist is actually requested. Returns ErrMissingCredentials if either
// value is empty.
func (c CatalogConfig) Credentials() (Credentials, error) {
	id := strings.TrimSpace(c.ClientID)
	secret := strings.TrimSpace(c.ClientSecret)
	if id == "" || secret == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return Credentials{ClientID: id, ClientSecret: secret}, nil
}

// Default returns a Config populated from the embedded example configuration.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty or the file does not exist), the .env file at envFile
// (same rules) and finally the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides configuration values with environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("SPOTIFY_CLIENT_ID", &c.Catalog.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &c.Catalog.ClientSecret)
	str("GOOGLE_API_KEY", &c.Model.APIKey)
	str("GEMINI_API_KEY", &c.Model.APIKey)
	str("VIBESYNC_MODEL_PROVIDER", &c.Model.Provider)
	str("VIBESYNC_TEXT_MODEL", &c.Model.TextModel)
	str("VIBESYNC_VISION_MODEL", &c.Model.VisionModel)
	str("OLLAMA_HOST", &c.Model.BaseURL)
	str("VIBESYNC_ADDR", &c.Server.Addr)
	str("VIBESYNC_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("VIBESYNC_CACHE_TOKEN"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing VIBESYNC_CACHE_TOKEN: %w", err)
		}
		c.Catalog.CacheToken = b
	}

	return nil
}

// Validate checks the configuration for values the application cannot run with.
// Catalog credentials are deliberately not checked here.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr cannot be empty")
	}
	switch c.Model.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Catalog.TokenURL == "" || c.Catalog.APIURL == "" {
		return errors.New("catalog token_url and api_url are required")
	}
	if c.Catalog.Timeout <= 0 || c.Model.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return errors.New("catalog requests_per_second cannot be negative")
	}
	return nil
}

// CreateConfigFile writes the example configuration to path.
// It refuses to overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
