package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/sessions/{id}", "418"))
	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/sessions/{id}", "418"))
	assert.Equal(t, 3.0, after-before)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(generatorCalls.WithLabelValues("feedback", OutcomeError))
	ObserveGeneration("feedback", OutcomeError, 50*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(generatorCalls.WithLabelValues("feedback", OutcomeError))-before)

	before = testutil.ToFloat64(fallbackQuestions)
	FallbackQuestionUsed()
	assert.Equal(t, 1.0, testutil.ToFloat64(fallbackQuestions)-before)

	before = testutil.ToFloat64(sessionsSaved.WithLabelValues(OutcomeError))
	ObserveSave(errors.New("disk full"))
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionsSaved.WithLabelValues(OutcomeError))-before)
}

func TestHandlerExposesNamespace(t *testing.T) {
	ObserveSpeech(OutcomeOK)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "mocktalk_speech_requests_total"))
}
