package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_updates_received_total",
		Help: "The total number of updates received from the platform",
	}, []string{"type"})

	LiveDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_live_decisions_total",
		Help: "Decisions made by the live filter",
	}, []string{"decision"})

	FingerprintDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dedup_fingerprint_duration_seconds",
		Help:    "Duration of fingerprint extraction",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	FingerprintFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_fingerprint_failures_total",
		Help: "Media items skipped because extraction failed",
	}, []string{"kind"})

	ScansStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedup_scans_started_total",
		Help: "The total number of history scans started",
	})

	ScansFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_scans_finished_total",
		Help: "The total number of history scans finished",
	}, []string{"status"})

	ScansActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedup_scans_active",
		Help: "Number of history scans currently running",
	})

	ScanItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dedup_scan_items_processed_total",
		Help: "Media items walked by history scans",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dedup_scan_duration_seconds",
		Help:    "Wall time of a history scan, including pacing",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	DuplicatesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_duplicates_deleted_total",
		Help: "Duplicate messages removed",
	}, []string{"source"})

	DeleteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dedup_delete_failures_total",
		Help: "Duplicate messages the platform refused to delete",
	}, []string{"source"})

	JournalSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dedup_journal_size",
		Help: "Number of channel posts retained in the update journal",
	})
)

// Decision sources.
const (
	SourceLive = "live"
	SourceScan = "scan"
)

// Scan outcomes.
const (
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
	ScanStatusCanceled  = "canceled"
)
