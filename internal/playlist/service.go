// Package playlist turns a described mood into a Spotify playlist. It runs
// the vibe resolution, catalog authentication, search and track fetch steps
// in order and reports failures by category.
package playlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/justestif/vibesync/internal/auth"
	"github.com/justestif/vibesync/internal/config"
	"github.com/justestif/vibesync/internal/logging"
	"github.com/justestif/vibesync/internal/mood"
	"github.com/justestif/vibesync/internal/spotify"
)

// Playlist is the result of one pipeline run.
type Playlist struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Tracks      []spotify.Track `json:"tracks"`
}

// CredentialProvider supplies catalog client credentials on demand.
type CredentialProvider interface {
	Credentials() (config.Credentials, error)
}

// Catalog searches playlists and lists their tracks.
type Catalog interface {
	SearchPlaylist(ctx context.Context, token *oauth2.Token, query string) (*spotify.PlaylistSummary, error)
	FetchTracks(ctx context.Context, token *oauth2.Token, playlistID string) ([]spotify.Track, error)
}

// Deps are the collaborators of a Service. Detector may be nil when the
// photo flow is not offered.
type Deps struct {
	Credentials CredentialProvider
	Auth        auth.Authenticator
	Catalog     Catalog
	Resolver    mood.VibeResolver
	Detector    mood.EmotionDetector
	Logger      *log.Logger

	// Per-call limits. Zero means no limit beyond the caller's context.
	CatalogTimeout time.Duration
	ModelTimeout   time.Duration
}

// Service runs the mood to playlist pipeline.
type Service struct {
	creds          CredentialProvider
	auth           auth.Authenticator
	catalog        Catalog
	resolver       mood.VibeResolver
	detector       mood.EmotionDetector
	logger         *log.Logger
	catalogTimeout time.Duration
	modelTimeout   time.Duration
}

// New creates a pipeline service.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		creds:          d.Credentials,
		auth:           d.Auth,
		catalog:        d.Catalog,
		resolver:       d.Resolver,
		detector:       d.Detector,
		logger:         logger,
		catalogTimeout: d.CatalogTimeout,
		modelTimeout:   d.ModelTimeout,
	}
}

// GeneratePlaylist resolves moodText to a vibe and returns the first catalog
// playlist matching it. No partial playlist is ever returned: on error the
// playlist is nil and the error matches one of the category sentinels.
func (s *Service) GeneratePlaylist(ctx context.Context, moodText, language string) (*Playlist, error) {
	logger := s.logger.With("request_id", logging.NewRequestID(), "flow", "text")

	p, err := s.generate(ctx, logger, moodText, normalizeLanguage(language))
	if err != nil {
		logger.Error("generating playlist", "err", err)
		return nil, err
	}

	logger.Info("playlist generated", "name", p.Name, "tracks", len(p.Tracks))
	return p, nil
}

func (s *Service) generate(ctx context.Context, logger *log.Logger, moodText, language string) (*Playlist, error) {
	moodText, err := ValidateMood(moodText)
	if err != nil {
		return nil, err
	}

	// Credentials are a local lookup, so a misconfigured server fails here
	// before any request leaves the process.
	if s.creds == nil {
		return nil, categorize(ErrConfiguration, config.ErrMissingCredentials)
	}
	creds, err := s.creds.Credentials()
	if err != nil {
		return nil, categorize(ErrConfiguration, err)
	}

	vibe, err := s.resolveVibe(ctx, moodText, language)
	if err != nil {
		return nil, err
	}
	logger.Debug("vibe resolved", "vibe", vibe)

	query := BuildQuery(language, vibe)
	logger.Debug("searching catalog", "query", query)

	token, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, categorize(ErrAuthentication, err)
	}

	summary, err := s.search(ctx, token, query)
	if err != nil {
		s.dropRejectedToken(logger, err)
		return nil, categorize(ErrCatalog, err)
	}
	if summary == nil {
		return nil, &NotFoundError{Vibe: vibe}
	}
	logger.Debug("playlist found", "id", summary.ID, "name", summary.Name)

	tracks, err := s.fetchTracks(ctx, token, summary.ID)
	if err != nil {
		s.dropRejectedToken(logger, err)
		return nil, categorize(ErrCatalog, err)
	}

	return assemble(summary, tracks, vibe), nil
}

// DetectMoodFromPhoto returns a one-word emotion for the face in a data URI
// photo. The result is meant to be submitted as mood text in a separate
// GeneratePlaylist call.
func (s *Service) DetectMoodFromPhoto(ctx context.Context, dataURI string) (string, error) {
	logger := s.logger.With("request_id", logging.NewRequestID(), "flow", "photo")

	emotion, err := s.detect(ctx, dataURI)
	if err != nil {
		logger.Error("detecting mood from photo", "err", err)
		return "", err
	}

	logger.Info("mood detected", "emotion", emotion)
	return emotion, nil
}

func (s *Service) detect(ctx context.Context, dataURI string) (string, error) {
	if s.detector == nil {
		return "", categorize(ErrConfiguration, errors.New("no emotion detector configured"))
	}

	photo, err := mood.ParseDataURI(dataURI)
	if err != nil {
		return "", &ModelError{Op: opDetectEmotion, Err: err}
	}

	ctx, cancel := withTimeout(ctx, s.modelTimeout)
	defer cancel()

	res, err := s.detector.DetectEmotion(ctx, photo)
	if err != nil {
		return "", &ModelError{Op: opDetectEmotion, Err: err}
	}

	emotion := strings.TrimSpace(res.Emotion)
	if emotion == "" {
		return "", &ModelError{Op: opDetectEmotion, Err: mood.ErrEmptyResult}
	}
	return emotion, nil
}

func (s *Service) resolveVibe(ctx context.Context, moodText, language string) (string, error) {
	if s.resolver == nil {
		return "", categorize(ErrConfiguration, errors.New("no vibe resolver configured"))
	}

	ctx, cancel := withTimeout(ctx, s.modelTimeout)
	defer cancel()

	res, err := s.resolver.ResolveVibe(ctx, moodText, language)
	if err != nil {
		return "", &ModelError{Op: opResolveVibe, Err: err}
	}

	vibe := strings.TrimSpace(res.Vibe)
	if vibe == "" {
		return "", &ModelError{Op: opResolveVibe, Err: mood.ErrEmptyResult}
	}
	return vibe, nil
}

func (s *Service) authenticate(ctx context.Context, creds config.Credentials) (*oauth2.Token, error) {
	ctx, cancel := withTimeout(ctx, s.catalogTimeout)
	defer cancel()
	return s.auth.Authenticate(ctx, creds)
}

func (s *Service) search(ctx context.Context, token *oauth2.Token, query string) (*spotify.PlaylistSummary, error) {
	ctx, cancel := withTimeout(ctx, s.catalogTimeout)
	defer cancel()
	return s.catalog.SearchPlaylist(ctx, token, query)
}

func (s *Service) fetchTracks(ctx context.Context, token *oauth2.Token, playlistID string) ([]spotify.Track, error) {
	ctx, cancel := withTimeout(ctx, s.catalogTimeout)
	defer cancel()
	return s.catalog.FetchTracks(ctx, token, playlistID)
}

// tokenInvalidator is implemented by authenticators that cache tokens.
type tokenInvalidator interface {
	Invalidate()
}

// dropRejectedToken clears a cached token the catalog refused, so the next
// run authenticates again instead of failing until the token expires.
func (s *Service) dropRejectedToken(logger *log.Logger, err error) {
	if !errors.Is(err, spotify.ErrUnauthorized) {
		return
	}
	if inv, ok := s.auth.(tokenInvalidator); ok {
		inv.Invalidate()
		logger.Warn("catalog rejected cached token, cleared it")
	}
}

func assemble(summary *spotify.PlaylistSummary, tracks []spotify.Track, vibe string) *Playlist {
	description := summary.Description
	if description == "" {
		description = fallbackDescription(vibe)
	}
	if tracks == nil {
		tracks = []spotify.Track{}
	}
	return &Playlist{
		Name:        summary.Name,
		Description: description,
		URL:         summary.ExternalURL,
		Tracks:      tracks,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
