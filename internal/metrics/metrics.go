// Package metrics exposes Prometheus instruments for the HTTP server, the
// generator and speech synthesis.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mocktalk"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	generatorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generator_calls_total",
		Help:      "Generator calls by kind (question, feedback, summary) and outcome",
	}, []string{"kind", "outcome"})

	generatorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generator_call_duration_seconds",
		Help:      "Duration of generator calls in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"kind"})

	fallbackQuestions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_questions_total",
		Help:      "Questions replaced by the static fallback question",
	})

	speechRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "speech_requests_total",
		Help:      "Speech synthesis requests by outcome",
	}, []string{"outcome"})

	sessionsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_saved_total",
		Help:      "Sessions appended to history by outcome",
	}, []string{"outcome"})
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

// ObserveGeneration records one generator call.
func ObserveGeneration(kind, outcome string, d time.Duration) {
	generatorCalls.WithLabelValues(kind, outcome).Inc()
	generatorLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// FallbackQuestionUsed counts a question replaced by the fallback.
func FallbackQuestionUsed() {
	fallbackQuestions.Inc()
}

// ObserveSpeech records one speech synthesis request.
func ObserveSpeech(outcome string) {
	speechRequests.WithLabelValues(outcome).Inc()
}

// ObserveSave records one history append.
func ObserveSave(err error) {
	if err != nil {
		sessionsSaved.WithLabelValues(OutcomeError).Inc()
		return
	}
	sessionsSaved.WithLabelValues(OutcomeOK).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request metrics. Routes are labelled with the chi
// pattern so session IDs do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
