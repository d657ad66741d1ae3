// Package metric provides Prometheus-based metrics collection and an HTTP
// server for observing a running Click router: element allocation, per-port
// packet flow, configure/initialize outcomes, cleanup stages, and live
// reconfiguration attempts.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: router/element-level metrics automatically registered (Metrics type)
//  2. Service Registry: extensible registration for element-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: metrics endpoint with a health check (Server type)
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	core := registry.CoreMetrics()
//	core.RecordAllocation(1)
//	core.RecordState("classifier@0", "Classifier", 6) // Element.RUNNING
//	core.RecordPortPacket("classifier@0", "output", "push")
//
// # Core Metrics
//
// The package automatically registers:
//
//   - click_router_elements_allocated — live Element instance count (nelements_allocated)
//   - click_router_state — current lifecycle state per element
//   - click_router_configure_failures_total / initialize_failures_total — per-class failure counts
//   - click_router_cleanups_total — cleanup() calls labeled by stage reached
//   - click_port_packets_total — packets transferred through a port, by direction and discipline
//   - click_port_transfer_duration_seconds — push/pull call-chain latency
//   - click_element_live_reconfigures_total — live reconfiguration attempts, by outcome
//   - click_element_handler_invokes_total — handler reads/writes
//
// # Service-Specific Metrics
//
// Elements can register custom metrics through the registry using the
// MetricsRegistrar interface (RegisterCounter, RegisterGauge, RegisterHistogram,
// and their *Vec variants), keyed by an element name and metric name.
//
// # HTTP Server
//
// The metrics server provides three endpoints:
//
//   - GET / — HTML page with links to metrics and health endpoints
//   - GET /metrics — Prometheus-formatted metrics (default path, configurable)
//   - GET /health — plain-text health check
//
// # Thread Safety
//
// All registry operations are thread-safe: registration methods are
// mutex-protected, metric recording is lock-free (a Prometheus guarantee),
// and CoreMetrics()/PrometheusRegistry() are safe for concurrent access.
package metric
