package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchMetrics covers the match pipeline, the optimizer and plan snapshots.
type MatchMetrics struct {
	outcomes     *prometheus.CounterVec
	gateFailures *prometheus.CounterVec
	malformed    prometheus.Counter
	optimize     *prometheus.HistogramVec
	unfulfilled  *prometheus.CounterVec
	plans        *prometheus.CounterVec
	catalog      prometheus.Gauge
}

// NewMatchMetrics registers the collectors on reg. A nil registerer yields no-op metrics.
func NewMatchMetrics(reg prometheus.Registerer) *MatchMetrics {
	if reg == nil {
		return &MatchMetrics{}
	}
	m := &MatchMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_outcomes_total",
			Help:      "Match results by status and product domain.",
		}, []string{"status", "domain"}),
		gateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_failures_total",
			Help:      "Candidates rejected per gate and domain.",
		}, []string{"gate", "domain"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_offers_total",
			Help:      "Offer records skipped because required fields were missing.",
		}),
		optimize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimizer_duration_seconds",
			Help:      "Cart optimizer run time.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"outcome"}),
		unfulfilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unfulfilled_lines_total",
			Help:      "Plan lines left unfulfilled by reason.",
		}, []string{"reason"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_operations_total",
			Help:      "Plan snapshot operations by result.",
		}, []string{"op", "result"}),
		catalog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_snapshot_version",
			Help:      "Version of the live classifier and dictionary snapshot.",
		}),
	}
	reg.MustRegister(m.outcomes, m.gateFailures, m.malformed, m.optimize, m.unfulfilled, m.plans, m.catalog)
	return m
}

func (m *MatchMetrics) ObserveMatch(status, domain string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(status), normalizeLabel(domain)).Inc()
}

func (m *MatchMetrics) AddGateFailures(domain string, failures map[string]int) {
	if m == nil || m.gateFailures == nil {
		return
	}
	for gate, count := range failures {
		m.gateFailures.WithLabelValues(normalizeLabel(gate), normalizeLabel(domain)).Add(float64(count))
	}
}

func (m *MatchMetrics) AddMalformed(count int) {
	if m == nil || m.malformed == nil || count <= 0 {
		return
	}
	m.malformed.Add(float64(count))
}

func (m *MatchMetrics) ObserveOptimize(success bool, duration time.Duration) {
	if m == nil || m.optimize == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	m.optimize.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *MatchMetrics) IncUnfulfilled(reason string) {
	if m == nil || m.unfulfilled == nil {
		return
	}
	m.unfulfilled.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncPlanOp records op (create, load, validate, checkout) with its result label.
func (m *MatchMetrics) IncPlanOp(op, result string) {
	if m == nil || m.plans == nil {
		return
	}
	m.plans.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

func (m *MatchMetrics) SetCatalogVersion(version int64) {
	if m == nil || m.catalog == nil {
		return
	}
	m.catalog.Set(float64(version))
}
