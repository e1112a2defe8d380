package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/yeonjoon13/flight-map/internal/markers"
	"github.com/yeonjoon13/flight-map/internal/poller"
	"github.com/yeonjoon13/flight-map/internal/viewport"
)

//go:embed static
var staticFS embed.FS

// Refresher runs a poll cycle on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StatusReporter reports the outcome of recent poll cycles.
type StatusReporter interface {
	Status() (lastSuccess time.Time, lastErr error)
}

type Deps struct {
	Viewport  *viewport.Viewport
	Markers   *markers.Synchronizer
	Refresher Refresher
	Status    StatusReporter
	// Stream serves /ws. Nil disables the route.
	Stream http.Handler
}

type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

// NewRouter mounts the page, the JSON API and the marker stream.
func NewRouter(deps Deps, logger zerolog.Logger) http.Handler {
	h := &Handler{deps: deps, logger: logger.With().Str("component", "web").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	static, _ := fs.Sub(staticFS, "static")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	r.Get("/healthz", h.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/viewport", h.GetViewport)
		r.Get("/markers", h.GetMarkers)
		r.Get("/style", h.GetStyle)
		r.Post("/refresh", h.PostRefresh)
	})

	if deps.Stream != nil {
		r.Get("/ws", deps.Stream.ServeHTTP)
	}
	return r
}

func (h *Handler) GetViewport(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.deps.Viewport.State())
}

// GetMarkers returns the installed layer as a GeoJSON FeatureCollection.
func (h *Handler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	body, err := h.deps.Markers.MarshalCurrent()
	if err != nil {
		h.logger.Error().Err(err).Msg("Encoding markers")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) GetStyle(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.deps.Markers.Styler().Base())
}

// PostRefresh runs a cycle now, or joins the one in flight.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Refresher.Refresh(r.Context())
	switch {
	case errors.Is(err, poller.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		h.logger.Warn().Err(err).Msg("Manual refresh failed")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	count := 0
	if layer := h.deps.Markers.Current(); layer != nil {
		count = layer.Len()
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"revision": h.deps.Viewport.Revision(),
		"markers":  count,
	})
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if h.deps.Status != nil {
		last, lastErr := h.deps.Status.Status()
		if !last.IsZero() {
			resp["last_success"] = last.UTC().Format(time.RFC3339Nano)
		}
		if lastErr != nil {
			resp["last_error"] = lastErr.Error()
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}
