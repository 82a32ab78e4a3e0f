package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for form evaluation flows.
type EngineMetrics struct {
	validationsTotal *prometheus.CounterVec
	riskScore        *prometheus.HistogramVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		validationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formscore",
			Subsystem: "engine",
			Name:      "validations_total",
			Help:      "Total form validation runs",
		}, []string{"form_id", "result"}),
		riskScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formscore",
			Subsystem: "engine",
			Name:      "risk_score",
			Help:      "Distribution of normalized risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}, []string{"form_id", "level"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.validationsTotal, m.riskScore)
	return m
}

func (m *EngineMetrics) ObserveValidation(formID string, valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.validationsTotal.WithLabelValues(formID, result).Inc()
}

func (m *EngineMetrics) ObserveScore(formID, level string, score float64) {
	if m == nil {
		return
	}
	m.riskScore.WithLabelValues(formID, level).Observe(score)
}

// StoreMetrics exposes counters/histograms for form state persistence.
type StoreMetrics struct {
	opsTotal  *prometheus.CounterVec
	opLatency *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formscore",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total form state store operations",
		}, []string{"op", "status"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formscore",
			Subsystem: "store",
			Name:      "operation_latency_seconds",
			Help:      "Latency of form state store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.opsTotal, m.opLatency)
	return m
}

func (m *StoreMetrics) ObserveOp(op, status string) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op, status).Inc()
}

func (m *StoreMetrics) ObserveOpLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.opLatency.WithLabelValues(op).Observe(seconds)
}
