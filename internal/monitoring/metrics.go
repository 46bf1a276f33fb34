// Package monitoring owns the Prometheus registry and the collectors the service records into.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swifttasks"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	migrations     *prometheus.CounterVec
	invitations    *prometheus.CounterVec
	maintenanceRun *prometheus.CounterVec
}

// New builds a Metrics with its own registry plus Go and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_join_migrations_total",
			Help:      "Team join requests by phase and outcome",
		}, []string{"phase", "outcome"}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_invitations_total",
			Help:      "Invitation lifecycle events",
		}, []string{"event"}),
		maintenanceRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_runs_total",
			Help:      "Maintenance job runs by job and result",
		}, []string{"job", "result"}),
	}
	collectors := []prometheus.Collector{
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequests, m.httpLatency, m.migrations, m.invitations, m.maintenanceRun,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Migrations is the team-join counter, labelled by phase and outcome.
func (m *Metrics) Migrations() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.migrations
}

// Maintenance is the cleanup run counter, labelled by job and result.
func (m *Metrics) Maintenance() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.maintenanceRun
}

// RecordMigration counts a team-join phase ("audit", "confirm", "execute") outcome.
func (m *Metrics) RecordMigration(phase, outcome string) {
	if m == nil {
		return
	}
	m.migrations.WithLabelValues(phase, outcome).Inc()
}

// RecordInvitation counts invitation events ("created", "rejected", "revoked", "expired").
func (m *Metrics) RecordInvitation(event string) {
	if m == nil {
		return
	}
	m.invitations.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordMaintenance(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.maintenanceRun.WithLabelValues(job, result).Inc()
}
