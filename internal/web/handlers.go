package web

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/justestif/vibesync/internal/mood"
	"github.com/justestif/vibesync/internal/playlist"
)

const (
	// maxFormBytes bounds text requests.
	maxFormBytes = 64 << 10
	// maxPhotoBytes bounds photo requests; data URIs are a third larger than the image.
	maxPhotoBytes = 10 << 20
)

// Pipeline is the part of playlist.Service the handlers need.
type Pipeline interface {
	GeneratePlaylist(ctx context.Context, moodText, language string) (*playlist.Playlist, error)
	DetectMoodFromPhoto(ctx context.Context, dataURI string) (string, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	pipeline  Pipeline
	templates *Templates
	logger    *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(pipeline Pipeline, templates *Templates, logger *log.Logger) *Handlers {
	return &Handlers{
		pipeline:  pipeline,
		templates: templates,
		logger:    logger,
	}
}

// playlistRequest is the body of POST /api/playlist.
type playlistRequest struct {
	Mood     string `json:"mood"`
	Language string `json:"language"`
}

// playlistResponse mirrors the {playlist, error} result of a form submission.
// Exactly one of the fields is non-null.
type playlistResponse struct {
	Playlist *playlist.Playlist `json:"playlist"`
	Error    *string            `json:"error"`
}

// photoRequest is the body of POST /api/mood/photo.
type photoRequest struct {
	Photo string `json:"photo"`
}

// photoResponse carries the detected mood text.
type photoResponse struct {
	Mood  *string `json:"mood"`
	Error *string `json:"error"`
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: PageData{
			Title:       "VibeSync",
			CurrentPath: r.URL.Path,
		},
		Languages:       languageOptions(),
		DefaultLanguage: playlist.DefaultLanguage,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.logger.Error("rendering home", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Languages lists the supported language preferences (GET /api/languages).
func (h *Handlers) Languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": playlist.Languages(),
		"default":   playlist.DefaultLanguage,
	})
}

// GeneratePlaylist runs the text flow (POST /api/playlist). It accepts a JSON
// body or form fields. HTMX requests get the rendered playlist fragment
// instead of JSON.
func (h *Handlers) GeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeRequest(w, r, maxFormBytes, &req, func() {
		req.Mood = r.PostFormValue("mood")
		req.Language = r.PostFormValue("language")
	}); err != nil {
		h.logger.Warn("decoding request", "path", r.URL.Path, "err", err)
		h.respondPlaylist(w, r, nil, &playlist.ValidationError{Field: "body", Message: "Invalid input."})
		return
	}

	p, err := h.pipeline.GeneratePlaylist(r.Context(), req.Mood, req.Language)
	h.respondPlaylist(w, r, p, err)
}

// DetectMood runs the photo flow (POST /api/mood/photo) and returns the
// detected emotion as mood text for a follow-up playlist request.
func (h *Handlers) DetectMood(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if err := decodeRequest(w, r, maxPhotoBytes, &req, func() {
		req.Photo = r.PostFormValue("photo")
	}); err != nil {
		h.logger.Warn("decoding request", "path", r.URL.Path, "err", err)
		msg := "Invalid input."
		writeJSON(w, http.StatusBadRequest, photoResponse{Error: &msg})
		return
	}

	emotion, err := h.pipeline.DetectMoodFromPhoto(r.Context(), req.Photo)
	if err != nil {
		msg := playlist.UserMessage(err)
		writeJSON(w, statusFor(err), photoResponse{Error: &msg})
		return
	}

	writeJSON(w, http.StatusOK, photoResponse{Mood: &emotion})
}

func (h *Handlers) respondPlaylist(w http.ResponseWriter, r *http.Request, p *playlist.Playlist, err error) {
	status := http.StatusOK
	resp := playlistResponse{Playlist: p}
	if err != nil {
		msg := playlist.UserMessage(err)
		status = statusFor(err)
		resp = playlistResponse{Error: &msg}
	}

	if r.Header.Get("HX-Request") == "true" {
		data := PlaylistPartialData{Playlist: resp.Playlist}
		if resp.Error != nil {
			data.Error = *resp.Error
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		// HTMX only swaps 2xx responses; the fragment carries the error.
		w.WriteHeader(http.StatusOK)
		if err := h.templates.RenderPartial(w, "playlist", data); err != nil {
			h.logger.Error("rendering playlist partial", "err", err)
		}
		return
	}

	writeJSON(w, status, resp)
}

// statusFor maps an error category to an HTTP status code. A photo that is
// not a data URI is the client's fault even though it fails as a model error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, playlist.ErrValidation),
		errors.Is(err, mood.ErrInvalidDataURI):
		return http.StatusBadRequest
	case errors.Is(err, playlist.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, playlist.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, playlist.ErrAuthentication),
		errors.Is(err, playlist.ErrCatalog),
		errors.Is(err, playlist.ErrModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeRequest reads a JSON body into v, or parses form fields and calls
// fromForm for any other content type.
func decodeRequest(w http.ResponseWriter, r *http.Request, limit int64, v any, fromForm func()) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return json.NewDecoder(r.Body).Decode(v)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(limit); err != nil {
			return err
		}
	} else if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
