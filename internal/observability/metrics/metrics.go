package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead relay.
type LeadMetrics struct {
	inboundTotal     *prometheus.CounterVec
	forwardAttempts  *prometheus.CounterVec
	configFetchTotal *prometheus.CounterVec
	locationMatches  *prometheus.CounterVec
	processLatency   *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound lead webhooks by origin and outcome",
		}, []string{"origin", "outcome"}),
		forwardAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "crm",
			Name:      "forward_attempts_total",
			Help:      "Lead forward attempts by request variant and status",
		}, []string{"variant", "status"}),
		configFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "crm",
			Name:      "config_fetch_total",
			Help:      "Tenant config fetches by status",
		}, []string{"status"}),
		locationMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadrelay",
			Subsystem: "leads",
			Name:      "location_resolution_total",
			Help:      "Location resolutions by origin, split into keyword matches and fallbacks",
		}, []string{"origin", "result"}),
		processLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadrelay",
			Subsystem: "webhook",
			Name:      "process_seconds",
			Help:      "Latency of lead processing including downstream calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.forwardAttempts, m.configFetchTotal, m.locationMatches, m.processLatency)
	return m
}

func (m *LeadMetrics) ObserveInbound(origin, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(origin, outcome).Inc()
}

func (m *LeadMetrics) ObserveForwardAttempt(variant, status string) {
	if m == nil {
		return
	}
	m.forwardAttempts.WithLabelValues(variant, status).Inc()
}

func (m *LeadMetrics) ObserveConfigFetch(status string) {
	if m == nil {
		return
	}
	m.configFetchTotal.WithLabelValues(status).Inc()
}

func (m *LeadMetrics) ObserveLocation(origin string, matched bool) {
	if m == nil {
		return
	}
	result := "fallback"
	if matched {
		result = "matched"
	}
	m.locationMatches.WithLabelValues(origin, result).Inc()
}

func (m *LeadMetrics) ObserveProcessLatency(origin string, seconds float64) {
	if m == nil {
		return
	}
	m.processLatency.WithLabelValues(origin).Observe(seconds)
}
