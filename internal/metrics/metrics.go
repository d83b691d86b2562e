package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts handled requests by route template, method and status code
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// JobQueriesTotal counts job listings by the ordering requested
	JobQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_job_queries_total",
			Help: "Total number of job listing queries.",
		},
		[]string{"sort"},
	)

	// SavedJobTogglesTotal counts bookmark toggles by resulting state (saved/unsaved)
	SavedJobTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_saved_job_toggles_total",
			Help: "Total number of saved job toggles.",
		},
		[]string{"state"},
	)

	// StoreFailuresTotal counts store errors propagated to callers
	StoreFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_store_failures_total",
			Help: "Total number of failed store operations.",
		},
		[]string{"operation"},
	)
)
