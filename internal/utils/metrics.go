package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database Metrics
var DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "db_query_duration_seconds",
	Help:    "Duration of database queries in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"query_type", "repository", "status"})

var DBQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "db_query_errors_total",
	Help: "Total number of failed database queries.",
}, []string{"query_type", "repository"})

// QueryTimer records one repository query. Call Fail on error, then Done (usually deferred).
type QueryTimer struct {
	queryType  string
	repository string
	status     string
	timer      *prometheus.Timer
}

func StartQueryTimer(queryType, repository string) *QueryTimer {
	qt := &QueryTimer{queryType: queryType, repository: repository, status: "success"}
	qt.timer = prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		DBQueryDurationSeconds.WithLabelValues(qt.queryType, qt.repository, qt.status).Observe(v)
	}))
	return qt
}

func (qt *QueryTimer) Fail() {
	qt.status = "error"
	DBQueryErrorsTotal.WithLabelValues(qt.queryType, qt.repository).Inc()
}

func (qt *QueryTimer) Done() {
	qt.timer.ObserveDuration()
}
