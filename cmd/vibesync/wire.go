package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/vibesync/internal/auth"
	"github.com/justestif/vibesync/internal/config"
	"github.com/justestif/vibesync/internal/gemini"
	"github.com/justestif/vibesync/internal/logging"
	"github.com/justestif/vibesync/internal/mood"
	"github.com/justestif/vibesync/internal/ollama"
	"github.com/justestif/vibesync/internal/playlist"
	"github.com/justestif/vibesync/internal/spotify"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	service *playlist.Service
}

// model is implemented by both providers.
type model interface {
	mood.VibeResolver
	mood.EmotionDetector
}

// setup loads configuration and wires the pipeline. Catalog credentials are
// not required here; they are checked when a playlist is requested.
func setup(ctx context.Context, cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if v := cmd.String("log-level"); v != "" {
		level = v
	}
	logger := logging.New(os.Stderr, level)

	m, err := newModel(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	catalogHTTP := &http.Client{Timeout: cfg.Catalog.Timeout}

	var authenticator auth.Authenticator = auth.New(cfg.Catalog.TokenURL, catalogHTTP)
	if cfg.Catalog.CacheToken {
		authenticator = auth.NewTokenCache(authenticator)
		logger.Debug("catalog token caching enabled")
	}

	catalog := spotify.New(cfg.Catalog.APIURL,
		spotify.WithHTTPClient(catalogHTTP),
		spotify.WithRateLimit(cfg.Catalog.RequestsPerSecond),
	)

	service := playlist.New(playlist.Deps{
		Credentials:    cfg.Catalog,
		Auth:           authenticator,
		Catalog:        catalog,
		Resolver:       m,
		Detector:       m,
		Logger:         logger,
		CatalogTimeout: cfg.Catalog.Timeout,
		ModelTimeout:   cfg.Model.Timeout,
	})

	logger.Debug("pipeline ready", "provider", cfg.Model.Provider, "catalog", cfg.Catalog.APIURL)

	return &app{cfg: cfg, logger: logger, service: service}, nil
}

// newModel builds the configured vibe resolver and emotion detector.
func newModel(ctx context.Context, cfg config.ModelConfig) (model, error) {
	hc := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.NewClient(cfg.BaseURL,
			ollama.WithModels(cfg.TextModel, cfg.VisionModel),
			ollama.WithHTTPClient(hc),
		), nil
	default:
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			TextModel:   cfg.TextModel,
			VisionModel: cfg.VisionModel,
			BaseURL:     cfg.BaseURL,
			HTTPClient:  hc,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return c, nil
	}
}

// requestBudget is the longest a single pipeline run can take: one model
// call and three catalog calls, plus slack for writing the response.
func (a *app) requestBudget() time.Duration {
	return a.cfg.Model.Timeout + 3*a.cfg.Catalog.Timeout + 5*time.Second
}
