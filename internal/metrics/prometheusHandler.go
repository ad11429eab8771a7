package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader records the status for http_requests_total.
func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "job_duration_seconds",
	Help:    "Total time a worker spent on one ingestion job, by final status.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

var ingestionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingestion_outcomes_total",
	Help: "Files that reached a terminal ingestion state, by document type and state",
}, []string{"type", "state"})

var chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingestion_chunks_total",
	Help: "Chunks produced by the pipeline and accepted by the index",
}, []string{"stage"})

var blobEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blob_events_total",
	Help: "Storage notifications read from kafka, by result",
}, []string{"result"})

func CaptureIngestionOutcome(docType string, state string, produced int, accepted int) {
	if docType == "" {
		docType = "unknown"
	}
	ingestionOutcomes.WithLabelValues(docType, state).Inc()
	chunksTotal.WithLabelValues("produced").Add(float64(produced))
	chunksTotal.WithLabelValues("accepted").Add(float64(accepted))
}

func CaptureBlobEvent(result string) {
	blobEventsTotal.WithLabelValues(result).Inc()
}
