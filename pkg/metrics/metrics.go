// Package metrics holds the Prometheus collectors and health checks
// served on the metrics listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recording metrics
	RecordedLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otairec_recorded_lines_total",
		Help: "Lines appended to the recording file by tag",
	}, []string{"tag"})
	RecordedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otairec_recorded_bytes_total",
		Help: "Bytes appended to the recording file",
	})
	SuppressedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otairec_suppressed_records_total",
		Help: "Records not written, by reason",
	}, []string{"reason"})
	RecordingEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "otairec_recording_enabled",
		Help: "1 while recording is enabled",
	})
	WriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "otairec_write_duration_seconds",
		Help:    "Time to append one line, including optional fsync",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	})
	WriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otairec_write_errors_total",
		Help: "Failed appends to the recording file",
	})
	OpenFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otairec_open_failures_total",
		Help: "Failed attempts to open the recording file",
	})
	Rotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otairec_rotations_total",
		Help: "Log rotations by result",
	}, []string{"result"})

	// Archive metrics
	ArchiveUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otairec_archive_uploads_total",
		Help: "Rotated segment uploads by result",
	}, []string{"result"})
	ArchiveBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "otairec_archive_bytes_total",
		Help: "Bytes uploaded to the archive backend after compression",
	})
	ArchiveQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "otairec_archive_queue_depth",
		Help: "Rotated segments waiting to be archived",
	})

	// Archive backend
	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "otairec_backend_request_duration_seconds",
		Help:    "Archive backend request duration by operation",
		Buckets: prometheus.ExponentialBuckets(.001, 4, 9),
	}, []string{"backend", "operation"})

	BackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otairec_backend_errors_total",
		Help: "Archive backend errors by operation",
	}, []string{"backend", "operation"})
)

// Seed the labelled series so they are exported before the first event.
func init() {
	for _, reason := range []string{"disabled", "stats", "alarms", "failed"} {
		SuppressedRecords.WithLabelValues(reason)
	}
	for _, result := range []string{"success", "failure"} {
		Rotations.WithLabelValues(result)
		ArchiveUploads.WithLabelValues(result)
	}
	ArchiveUploads.WithLabelValues("dropped")
}
