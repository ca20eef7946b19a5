package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"duck-agent/internal/domain"
	"duck-agent/internal/middleware"
)

// Asker answers one question; *Agent satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (*Response, error)
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// NewHTTPHandler builds the chi router: health probe plus the ask
// endpoint, behind CORS and per-client rate limiting.
func NewHTTPHandler(asker Asker, logger *slog.Logger, cfg ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ask", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		question := strings.TrimSpace(body.Question)
		if question == "" {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}

		resp, err := asker.Ask(req.Context(), question)
		if err != nil {
			status := statusForError(err)
			logger.Error("ask failed", "question", question, "status", status, "error", err)
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return r
}

// statusForError maps domain errors to HTTP statuses: caller mistakes are
// 400s, an unreadable dataset is a 502, anything else a 500.
func statusForError(err error) int {
	var (
		validation *domain.ValidationError
		unknown    *domain.UnknownColumnError
		malformed  *domain.MalformedFilterValueError
		unreadable *domain.DatasetUnreadableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &unknown), errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.As(err, &unreadable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": message,
	})
}
