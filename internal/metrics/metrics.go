package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_reports_events_ingested_total",
		Help: "Total number of events accepted by POST /events, labelled by event type.",
	}, []string{"event_type"})

	ExportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_reports_export_rows_total",
		Help: "Total number of CSV data rows written, labelled by flow (download|report).",
	}, []string{"flow"})

	ReportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_reports_jobs_total",
		Help: "Report jobs reaching a terminal or rejected state, labelled by outcome.",
	}, []string{"outcome"})

	ReportStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "event_reports_stage_duration_seconds",
		Help:    "Duration of each report pipeline stage.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage", "status"})

	ReportQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_reports_queue_depth",
		Help: "Report jobs waiting for a worker.",
	})

	ArchivesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_reports_archives_swept_total",
		Help: "Archives deleted after the retention window.",
	})
)
