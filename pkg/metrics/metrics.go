// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts processed uploads by outcome (accepted, rejected,
	// error).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weirdbench",
		Subsystem: "ingest",
		Name:      "uploads_total",
		Help:      "Benchmark uploads processed, by outcome.",
	}, []string{"outcome"})

	// DevicesCreated counts hardware records created, by device class.
	DevicesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weirdbench",
		Subsystem: "ingest",
		Name:      "devices_created_total",
		Help:      "Hardware device records created, by type.",
	}, []string{"type"})

	// PayloadsStored counts raw benchmark documents persisted, by benchmark.
	PayloadsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weirdbench",
		Subsystem: "ingest",
		Name:      "payloads_stored_total",
		Help:      "Raw benchmark payloads stored, by benchmark type.",
	}, []string{"benchmark"})

	// UploadDuration observes end-to-end upload processing time.
	UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "weirdbench",
		Subsystem: "ingest",
		Name:      "upload_duration_seconds",
		Help:      "Time spent processing one upload.",
		Buckets:   prometheus.DefBuckets,
	})
)
