package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTransitions counts lifecycle results: started, conflict, stopped.
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_session_transitions_total",
			Help: "Tracking session lifecycle transitions",
		},
		[]string{"result"},
	)

	LocationPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_location_pushes_total",
			Help: "Accepted location pushes by mode",
		},
		[]string{"mode"},
	)

	PinpointsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_pinpoints_created_total",
			Help: "Created pinpoints by address source",
		},
		[]string{"address_source"},
	)

	// GeocoderLookups outcome: ok, cache_hit, error, circuit_open, rate_limited.
	GeocoderLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_geocoder_lookups_total",
			Help: "Reverse geocoding lookups by outcome",
		},
		[]string{"outcome"},
	)

	ReportRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attendtrack_report_render_duration_seconds",
			Help:    "PDF report rendering time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	ReportJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_report_jobs_total",
			Help: "Asynchronous report jobs by status",
		},
		[]string{"status"},
	)

	ArchivedReportsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendtrack_archived_reports_removed_total",
			Help: "Archived report files deleted by retention",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendtrack_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)
)
