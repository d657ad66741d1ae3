package metric

// MetricsAware is implemented by an element class that wants to register
// its own custom Prometheus metrics, beyond the fixed core set every
// element reports through *Metrics. A router calls RegisterElementMetrics
// once per element right after Attach, and UnregisterElementMetrics for
// every such element when the router aborts or shuts down — mirroring the
// register/unregister pairing MetricsRegistrar exposes.
type MetricsAware interface {
	RegisterElementMetrics(element string, reg MetricsRegistrar) error
	UnregisterElementMetrics(element string, reg MetricsRegistrar)
}
