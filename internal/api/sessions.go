package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/metrics"
)

// sessionLocks serialises actions on one session ID. An entry lives only
// while some request holds or waits for it.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sessionLock)
	}
	e, ok := l.m[id]
	if !ok {
		e = &sessionLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

type sessionView struct {
	ID string `json:"id"`
	interview.SessionState
	Progress string `json:"progress,omitempty"`
}

func viewOf(id string, st interview.SessionState) sessionView {
	return sessionView{ID: id, SessionState: st, Progress: st.Progress()}
}

type answerRequest struct {
	Text string `json:"text"`
}

type saveResponse struct {
	Status string           `json:"status"`
	Record interview.Record `json:"record"`
}

func (d Deps) machineDeps() interview.Deps {
	return interview.Deps{Generator: d.Generator, History: d.History, Now: d.Now}
}

// withMachine loads the session, applies fn and stores the result when fn
// succeeds. A failed action leaves the stored session as it was.
func withMachine(deps Deps, w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, m *interview.Machine) error) {
	id := chi.URLParam(r, "id")
	unlock := deps.locks.lock(id)
	defer unlock()

	ctx := r.Context()
	st, err := deps.Sessions.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	m := interview.Restore(deps.machineDeps(), st)
	if err := fn(ctx, m); err != nil {
		deps.Logger.Warn("session action failed", zap.String("session", id), zap.Error(err))
		writeError(w, err)
		return
	}

	next := m.State()
	if err := deps.Sessions.Put(ctx, id, next); err != nil {
		httpError(w, http.StatusInternalServerError, "storage_error", "failed to store session: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, next))
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		st := interview.NewState()
		if err := deps.Sessions.Put(r.Context(), id, st); err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "failed to create session: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(id, st))
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		st, err := deps.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(id, st))
	}
}

func handleStart(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var cfg interview.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		withMachine(deps, w, r, func(ctx context.Context, m *interview.Machine) error {
			return m.StartInterview(ctx, cfg)
		})
	}
}

func handleAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		withMachine(deps, w, r, func(_ context.Context, m *interview.Machine) error {
			return m.RecordAnswer(req.Text)
		})
	}
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withMachine(deps, w, r, func(ctx context.Context, m *interview.Machine) error {
			return m.RequestFeedback(ctx)
		})
	}
}

func handleNext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withMachine(deps, w, r, func(ctx context.Context, m *interview.Machine) error {
			return m.AdvanceQuestion(ctx)
		})
	}
}

func handleSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withMachine(deps, w, r, func(ctx context.Context, m *interview.Machine) error {
			return m.GenerateSummary(ctx)
		})
	}
}

func handleReset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withMachine(deps, w, r, func(_ context.Context, m *interview.Machine) error {
			m.Reset()
			return nil
		})
	}
}

func handleSave(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		unlock := deps.locks.lock(id)
		defer unlock()

		st, err := deps.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		rec, err := interview.Restore(deps.machineDeps(), st).SaveToHistory(r.Context())
		if err == nil || interview.IsPersistence(err) {
			metrics.ObserveSave(err)
		}
		if err != nil {
			deps.Logger.Warn("save to history failed", zap.String("session", id), zap.Error(err))
			writeError(w, err)
			return
		}
		deps.Logger.Info("session saved", zap.String("session", id), zap.String("role", rec.Role))
		writeJSON(w, http.StatusOK, saveResponse{Status: "saved", Record: rec})
	}
}

func handleAudio(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		st, err := deps.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if deps.Speech == nil || st.Stage != interview.StageInterview {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		audio, err := deps.Speech.Synthesize(r.Context(), st.CurrentQuestion)
		if err != nil {
			deps.Logger.Warn("speech synthesis failed", zap.String("session", id), zap.Error(err))
			httpError(w, http.StatusBadGateway, "api_error", "speech synthesis failed: %v", err)
			return
		}
		if len(audio) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}
}
