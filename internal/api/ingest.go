package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/history"
	"github.com/kalambet/mocktalk/internal/ingest"
	"github.com/kalambet/mocktalk/internal/interview"
)

const maxUploadBodySize = ingest.MaxResumeSize + 1<<20

type textResponse struct {
	Text  string `json:"text"`
	Words int    `json:"words"`
}

type postingRequest struct {
	URL string `json:"url"`
}

func newTextResponse(text string) textResponse {
	return textResponse{Text: text, Words: len(strings.Fields(text))}
}

func handleResume(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "expected multipart field \"file\": %v", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, ingest.MaxResumeSize+1))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to read upload: %v", err)
			return
		}

		text, err := ingest.ResumeText(header.Filename, data)
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "could not read resume: %v", err)
			return
		}

		deps.Logger.Debug("resume extracted", zap.String("file", header.Filename), zap.Int("bytes", len(data)))
		writeJSON(w, http.StatusOK, newTextResponse(text))
	}
}

func handleJobPosting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req postingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required")
			return
		}

		text, err := ingest.FetchPosting(r.Context(), deps.HTTPClient, strings.TrimSpace(req.URL))
		if err != nil {
			deps.Logger.Warn("job posting fetch failed", zap.String("url", req.URL), zap.Error(err))
			httpError(w, http.StatusBadGateway, "api_error", "could not fetch job posting: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, newTextResponse(text))
	}
}

type historyEntry struct {
	N     int    `json:"n"`
	Label string `json:"label"`
	interview.Record
}

// handleListHistory never fails on a broken history file; the store
// reports an empty list instead.
func handleListHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.History.Load(r.Context())
		if err != nil {
			deps.Logger.Warn("loading history failed", zap.Error(err))
			records = nil
		}

		entries := make([]historyEntry, len(records))
		for i, rec := range records {
			entries[i] = historyEntry{N: i + 1, Label: rec.Label(i + 1), Record: rec}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "session number must be an integer")
			return
		}

		rec, err := deps.History.Get(r.Context(), n)
		if err != nil {
			if !errors.Is(err, history.ErrNotFound) {
				deps.Logger.Warn("reading history failed", zap.Error(err))
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, historyEntry{N: n, Label: rec.Label(n), Record: rec})
	}
}
