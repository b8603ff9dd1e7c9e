package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "afdaudit"

// Collector is a prometheus.Collector for the audit pipeline. A nil
// *Collector is valid and records nothing.
type Collector struct {
	decisions     *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	binds         *prometheus.CounterVec
	inflight      prometheus.Gauge
	approvalDelay prometheus.Histogram
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "admission_decisions_total",
				Help:      "Join requests by terminal admission state.",
			}, []string{"state"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "order_lookups_total",
				Help:      "Order resolutions by result.",
			}, []string{"result"},
		),
		binds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "binds_total",
				Help:      "Manual bind attempts by outcome.",
			}, []string{"outcome"},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "events_inflight",
				Help:      "Inbound events currently being handled.",
			},
		),
		approvalDelay: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "approval_delay_seconds",
				Help:      "Pacing delay applied before approving a join request.",
				Buckets:   []float64{1, 2, 3, 3.5, 4, 4.5, 5, 10},
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.decisions.Describe(ch)
	c.lookups.Describe(ch)
	c.binds.Describe(ch)
	c.inflight.Describe(ch)
	c.approvalDelay.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.decisions.Collect(ch)
	c.lookups.Collect(ch)
	c.binds.Collect(ch)
	c.inflight.Collect(ch)
	c.approvalDelay.Collect(ch)
}

func (c *Collector) Decision(state string) {
	if c == nil {
		return
	}
	c.decisions.WithLabelValues(state).Inc()
}

func (c *Collector) Lookup(result string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}

func (c *Collector) Bind(outcome string) {
	if c == nil {
		return
	}
	c.binds.WithLabelValues(outcome).Inc()
}

// TrackEvent marks an event as started and returns the matching done func.
func (c *Collector) TrackEvent() func() {
	if c == nil {
		return func() {}
	}
	c.inflight.Inc()
	return c.inflight.Dec
}

func (c *Collector) ApprovalDelay(d time.Duration) {
	if c == nil {
		return
	}
	c.approvalDelay.Observe(d.Seconds())
}
