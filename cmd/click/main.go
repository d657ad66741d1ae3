// Package main implements the entry point for click: it loads a
// pipeline graph config, wires it up through the router, and keeps it
// running (serving Prometheus metrics and accepting OS signals) until
// told to shut down.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/metric"
	"github.com/abhishen/click/router"
	"github.com/nats-io/nats.go"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "click"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("click failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)
	slog.Info("starting click", "version", Version, "config_path", cliCfg.ConfigPath)

	graph, err := loadGraphConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tasks := router.NewTaskEngine()
	classes := newClassRegistry(tasks)
	if err := graph.validate(classes); err != nil {
		return fmt.Errorf("invalid graph config: %w", err)
	}
	if cliCfg.Validate {
		slog.Info("graph config is valid", "elements", len(graph.Elements), "connections", len(graph.Connections))
		return nil
	}

	var nc *nats.Conn
	if graph.NATSURL != "" {
		opts := []nats.Option{
			nats.MaxReconnects(graph.NATSMaxReconnects),
			nats.ReconnectWait(graph.NATSReconnectWait),
		}
		if graph.NATSInsecureSkipVerify {
			opts = append(opts, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
		}
		slog.Debug("NATS reconnect tuning",
			"max_reconnects", graph.NATSMaxReconnects,
			"reconnect_wait", graph.NATSReconnectWait,
			"explicitly_configured", graph.NATSReconnectTuned)

		nc, err = nats.Connect(graph.NATSURL, opts...)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()
	}

	metricsRegistry := metric.NewMetricsRegistry()
	errh := router.NewNATSErrorSink(graph.ErrorSubject, nc, logger)

	r := router.New(errh, metricsRegistry.CoreMetrics())
	r.SetMetricsRegistrar(metricsRegistry)
	if err := buildGraph(r, graph, classes); err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	if err := r.Finalize(); err != nil {
		return fmt.Errorf("finalize router: %w", err)
	}
	slog.Info("router running", "elements", len(graph.Elements))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go tasks.Run(ctx)

	var metricsServer *metric.Server
	if graph.MetricsEnabled && graph.MetricsPort > 0 {
		metricsServer = metric.NewServer(graph.MetricsPort, graph.MetricsPath, metricsRegistry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				slog.Warn("metrics server stopped", "error", err)
			}
		}()
		slog.Info("metrics server listening", "address", metricsServer.Address())
	} else if !graph.MetricsEnabled {
		slog.Info("metrics server disabled by config")
	}

	<-ctx.Done()
	slog.Info("shutdown signal received")

	done := make(chan struct{})
	go func() {
		defer close(done)
		tasks.Stop()
		r.Shutdown()
		if metricsServer != nil {
			if err := metricsServer.Stop(); err != nil {
				slog.Warn("metrics server shutdown error", "error", err)
			}
		}
	}()

	select {
	case <-done:
		slog.Info("click shutdown complete")
	case <-time.After(graph.ShutdownTimeout):
		slog.Error("graceful shutdown timed out, forcing exit", "timeout", graph.ShutdownTimeout)
		os.Exit(1)
	}

	return nil
}

// buildGraph constructs and queues every element and connection named
// by graph onto r, ready for Finalize.
func buildGraph(r *router.Router, graph *graphConfig, classes classRegistry) error {
	for _, es := range graph.Elements {
		hooks, err := classes.build(es.Class)
		if err != nil {
			return err
		}
		if err := r.Add(es.Name, es.Landmark, hooks, config.Args(es.Args)); err != nil {
			return fmt.Errorf("add %s: %w", es.Name, err)
		}
	}
	for _, cs := range graph.Connections {
		if err := r.Connect(cs.From, cs.FromPort, cs.To, cs.ToPort); err != nil {
			return fmt.Errorf("connect %s -> %s: %w", cs.From, cs.To, err)
		}
	}
	return nil
}
