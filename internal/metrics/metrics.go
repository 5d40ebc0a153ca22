// Package metrics exposes the bot's Prometheus collectors. Every recording
// method is safe to call on a nil *Metrics, so components can treat
// metrics as optional.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const namespace = "reminderbot"

// Reconcile results.
const (
	ReconcileRebuilt   = "rebuilt"
	ReconcileUnchanged = "unchanged"
	ReconcileSkipped   = "skipped"
	ReconcileError     = "error"
)

// Run results.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Content fallback kinds.
const (
	FallbackQuote = "quote"
	FallbackHints = "hints"
)

// Metrics holds the registry and collectors.
type Metrics struct {
	registry      *prometheus.Registry
	checks        *prometheus.CounterVec
	checkDuration prometheus.Histogram
	emails        *prometheus.CounterVec
	reconciles    *prometheus.CounterVec
	scheduledJobs prometheus.Gauge
	cacheLookups  *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

// New creates a Metrics with a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Per-user checks by terminal outcome.",
		}, []string{"outcome"}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of a single per-user check.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Email dispatch attempts by result.",
		}, []string{"result"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciles_total",
			Help:      "Schedule reconciliations by result.",
		}, []string{"result"}),
		scheduledJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_jobs",
			Help:      "Reminder jobs currently registered.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_cache_lookups_total",
			Help:      "Daily question cache lookups by result.",
		}, []string{"result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_fallbacks_total",
			Help:      "Generated content replaced by static defaults.",
		}, []string{"kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Full check runs by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checks, m.checkDuration, m.emails, m.reconciles,
		m.scheduledJobs, m.cacheLookups, m.fallbacks, m.runs,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCheck records the outcome and duration of one user check.
func (m *Metrics) RecordCheck(outcome potd.Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(string(outcome)).Inc()
	m.checkDuration.Observe(d.Seconds())
}

// RecordEmail records one dispatch attempt.
func (m *Metrics) RecordEmail(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.emails.WithLabelValues("failed").Inc()
		return
	}
	m.emails.WithLabelValues("sent").Inc()
}

// RecordReconcile records one reconciliation result.
func (m *Metrics) RecordReconcile(result string) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(result).Inc()
}

// SetScheduledJobs sets the registered job gauge.
func (m *Metrics) SetScheduledJobs(n int) {
	if m == nil {
		return
	}
	m.scheduledJobs.Set(float64(n))
}

// RecordCacheLookup records a daily question cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordFallback records generated content replaced by a default.
func (m *Metrics) RecordFallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

// RecordRun records the result of a full run over all users.
func (m *Metrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}

// Snapshot is a point-in-time view of the headline counters.
type Snapshot struct {
	Checks        map[string]float64 `json:"checks"`
	EmailsSent    float64            `json:"emails_sent"`
	EmailsFailed  float64            `json:"emails_failed"`
	ScheduledJobs float64            `json:"scheduled_jobs"`
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Checks: make(map[string]float64, 3)}
	if m == nil {
		return snap
	}
	for _, o := range []potd.Outcome{potd.OutcomeSolved, potd.OutcomeReminded, potd.OutcomeError} {
		snap.Checks[string(o)] = counterValue(m.checks.WithLabelValues(string(o)))
	}
	snap.EmailsSent = counterValue(m.emails.WithLabelValues("sent"))
	snap.EmailsFailed = counterValue(m.emails.WithLabelValues("failed"))

	var g dto.Metric
	if err := m.scheduledJobs.Write(&g); err == nil && g.Gauge != nil {
		snap.ScheduledJobs = g.Gauge.GetValue()
	}
	return snap
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil || out.Counter == nil {
		return 0
	}
	return out.Counter.GetValue()
}
