package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ask outcomes.
const (
	OutcomeAnswered    = "answered"
	OutcomeNotFound    = "not_found"
	OutcomeNoNotes     = "no_notes"
	OutcomeUnavailable = "unavailable"
)

var (
	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notes_uploads_total",
		Help: "Total documents uploaded",
	})
	deletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notes_deletes_total",
		Help: "Total documents deleted",
	})
	blobDeleteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notes_blob_delete_failures_total",
		Help: "Blob removals that failed while the record was still deleted",
	})
	extractEmptyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notes_extract_empty_total",
		Help: "Uploads of a supported format that yielded no readable text",
	})
	asksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_asks_total",
		Help: "Questions answered, by outcome",
	}, []string{"outcome"})
	completionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notes_completion_duration_seconds",
		Help:    "Latency of completion service calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notes_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// IncUpload increments the upload counter.
func IncUpload() {
	uploadsTotal.Inc()
}

// IncDelete increments the delete counter.
func IncDelete() {
	deletesTotal.Inc()
}

// IncBlobDeleteFailure counts a best-effort blob removal that failed.
func IncBlobDeleteFailure() {
	blobDeleteFailuresTotal.Inc()
}

// IncExtractEmpty counts a supported upload that produced no text.
func IncExtractEmpty() {
	extractEmptyTotal.Inc()
}

// IncAsk records the outcome of a question.
func IncAsk(outcome string) {
	asksTotal.WithLabelValues(outcome).Inc()
}

// ObserveCompletion records a completion service call duration.
func ObserveCompletion(d time.Duration) {
	if d < 0 {
		d = 0
	}
	completionDuration.Observe(d.Seconds())
}

// ObserveHTTP records a finished HTTP request.
func ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
