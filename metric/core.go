package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the process-wide metrics exposed by the element/port core.
type Metrics struct {
	// Router-level metrics
	ElementsAllocated  prometheus.Gauge
	RouterState        *prometheus.GaugeVec
	ConfigureFailures  *prometheus.CounterVec
	InitializeFailures *prometheus.CounterVec
	CleanupsTotal      *prometheus.CounterVec

	// Port-level metrics
	PortPackets       *prometheus.CounterVec
	PortPushDuration  *prometheus.HistogramVec
	LiveReconfigures  *prometheus.CounterVec
	HandlerInvokes    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all core metrics registered
// against no particular Prometheus registry; call MetricsRegistry.CoreMetrics
// to obtain one already wired into a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ElementsAllocated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "click",
				Subsystem: "router",
				Name:      "elements_allocated",
				Help:      "Number of live Element instances (nelements_allocated).",
			},
		),

		RouterState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "click",
				Subsystem: "router",
				Name:      "state",
				Help:      "Current lifecycle state per element (see element.State).",
			},
			[]string{"element", "class"},
		),

		ConfigureFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "router",
				Name:      "configure_failures_total",
				Help:      "Number of elements whose configure() returned an error.",
			},
			[]string{"element", "class"},
		),

		InitializeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "router",
				Name:      "initialize_failures_total",
				Help:      "Number of elements whose initialize() returned an error.",
			},
			[]string{"element", "class"},
		),

		CleanupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "router",
				Name:      "cleanups_total",
				Help:      "Number of cleanup() calls, labeled by the stage reached.",
			},
			[]string{"stage"},
		),

		PortPackets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "port",
				Name:      "packets_total",
				Help:      "Packets transferred through a port, labeled by direction and discipline.",
			},
			[]string{"element", "direction", "discipline"},
		),

		PortPushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "click",
				Subsystem: "port",
				Name:      "transfer_duration_seconds",
				Help:      "Latency of a single push or pull transfer through the downstream/upstream call chain.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"element", "direction"},
		),

		LiveReconfigures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "element",
				Name:      "live_reconfigures_total",
				Help:      "Live reconfiguration attempts, labeled by outcome.",
			},
			[]string{"element", "outcome"},
		),

		HandlerInvokes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "click",
				Subsystem: "element",
				Name:      "handler_invokes_total",
				Help:      "Reads and writes against an element's named handlers.",
			},
			[]string{"handler", "op"},
		),
	}
}

// RecordAllocation adjusts the live element counter. delta is +1 on
// construction and -1 on destruction; the gauge must never go negative.
func (c *Metrics) RecordAllocation(delta int) {
	if delta > 0 {
		c.ElementsAllocated.Add(float64(delta))
	} else {
		c.ElementsAllocated.Sub(float64(-delta))
	}
}

// RecordState updates the reported lifecycle state for an element.
func (c *Metrics) RecordState(ename, class string, state int) {
	c.RouterState.WithLabelValues(ename, class).Set(float64(state))
}

// RecordConfigureFailure increments the configure-failure counter.
func (c *Metrics) RecordConfigureFailure(ename, class string) {
	c.ConfigureFailures.WithLabelValues(ename, class).Inc()
}

// RecordInitializeFailure increments the initialize-failure counter.
func (c *Metrics) RecordInitializeFailure(ename, class string) {
	c.InitializeFailures.WithLabelValues(ename, class).Inc()
}

// RecordCleanup increments the cleanup counter for the stage reached.
func (c *Metrics) RecordCleanup(stage string) {
	c.CleanupsTotal.WithLabelValues(stage).Inc()
}

// RecordPortPacket increments the packet counter for a port transfer.
func (c *Metrics) RecordPortPacket(ename, direction, discipline string) {
	c.PortPackets.WithLabelValues(ename, direction, discipline).Inc()
}

// RecordTransferDuration records the latency of a push or pull call chain.
func (c *Metrics) RecordTransferDuration(ename, direction string, d time.Duration) {
	c.PortPushDuration.WithLabelValues(ename, direction).Observe(d.Seconds())
}

// RecordLiveReconfigure increments the live-reconfigure outcome counter.
func (c *Metrics) RecordLiveReconfigure(ename, outcome string) {
	c.LiveReconfigures.WithLabelValues(ename, outcome).Inc()
}

// RecordHandlerInvoke increments the handler-invocation counter.
func (c *Metrics) RecordHandlerInvoke(handler, op string) {
	c.HandlerInvokes.WithLabelValues(handler, op).Inc()
}
