// Package api serves the browser page, the JSON session API and the MCP tools.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/history"
	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/logging"
	"github.com/kalambet/mocktalk/internal/metrics"
	"github.com/kalambet/mocktalk/internal/sessions"
)

const (
	maxRequestBodySize = 1 << 20
	requestTimeout     = 2 * time.Minute
)

// Synthesizer turns question text into MP3 bytes. Nil audio with a nil
// error means there is nothing to play.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Sessions   sessions.Store
	History    history.Store
	Generator  interview.Generator
	Speech     Synthesizer // optional; audio returns 204 when nil
	HTTPClient *http.Client
	Logger     *zap.Logger

	AllowedOrigins []string
	Now            func() time.Time

	locks *sessionLocks
}

// NewHandler builds the router for the page and the JSON API.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.locks = &sessionLocks{}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/options", handleOptions)

		r.Post("/sessions", handleCreateSession(deps))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Post("/start", handleStart(deps))
			r.Put("/answer", handleAnswer(deps))
			r.Post("/feedback", handleFeedback(deps))
			r.Post("/next", handleNext(deps))
			r.Post("/summary", handleSummary(deps))
			r.Post("/save", handleSave(deps))
			r.Post("/reset", handleReset(deps))
			r.Get("/audio", handleAudio(deps))
		})

		r.Post("/resume", handleResume(deps))
		r.Post("/job-posting", handleJobPosting(deps))

		r.Get("/history", handleListHistory(deps))
		r.Get("/history/{n}", handleGetHistory(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type modeOption struct {
	Name               interview.Mode `json:"name"`
	SuggestedQuestions int            `json:"suggested_questions"`
}

type optionsResponse struct {
	InterviewTypes []interview.InterviewType `json:"interview_types"`
	Modes          []modeOption              `json:"modes"`
	Levels         []interview.Level         `json:"levels"`
	MinQuestions   int                       `json:"min_questions"`
	MaxQuestions   int                       `json:"max_questions"`
	Defaults       interview.Config          `json:"defaults"`
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	modes := make([]modeOption, len(interview.Modes))
	for i, m := range interview.Modes {
		modes[i] = modeOption{Name: m, SuggestedQuestions: m.SuggestedQuestions()}
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		InterviewTypes: interview.InterviewTypes,
		Modes:          modes,
		Levels:         interview.Levels,
		MinQuestions:   interview.MinQuestions,
		MaxQuestions:   interview.MaxQuestions,
		Defaults:       interview.DefaultConfig(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
