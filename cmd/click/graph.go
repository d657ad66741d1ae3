package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/abhishen/click/config"
)

// elementSpec is one "elements" entry of a graph config file.
type elementSpec struct {
	Name     string
	Class    string
	Landmark string
	Args     []string
}

// connectionSpec is one "connections" entry of a graph config file.
type connectionSpec struct {
	From     string
	FromPort int
	To       string
	ToPort   int
}

// graphConfig is a fully parsed pipeline description: the elements to
// build and the ports to wire them through, plus a few deployment
// knobs (metrics port/path, NATS URL, error-report subject).
type graphConfig struct {
	Elements       []elementSpec
	Connections    []connectionSpec
	MetricsPort    int
	MetricsPath    string
	MetricsEnabled bool
	NATSURL        string
	ErrorSubject   string

	// NATS reconnect tuning, read from the optional nested "nats" section.
	// Defaults mirror the teacher's own config package: infinite
	// reconnect attempts, 2s between attempts.
	NATSMaxReconnects int
	NATSReconnectWait time.Duration

	// ShutdownTimeout bounds how long a graceful shutdown may take before
	// the process force-exits, the same timeout-then-force shape as the
	// teacher's own runWithSignalHandling/shutdown pair.
	ShutdownTimeout time.Duration

	NATSInsecureSkipVerify bool
	// NATSReconnectTuned reports whether the document explicitly set
	// nats.max_reconnects, purely so startup logging can distinguish a
	// deliberate override from the default.
	NATSReconnectTuned bool
}

// loadGraphConfig reads path as JSON into a generic map and extracts a
// graphConfig from it using config's safe-accessor helpers, the same
// defensive style used to pull typed values out of a loosely structured
// configuration document without panicking on a missing or
// wrong-typed field.
func loadGraphConfig(path string) (*graphConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	reconnectWaitSeconds := config.GetFloat64(doc, "nats_reconnect_wait_seconds", 2.0)
	shutdownTimeoutSeconds := config.GetFloat64(doc, "shutdown_timeout_seconds", 10.0)

	gc := &graphConfig{
		MetricsPort:    config.GetInt(doc, "metrics_port", 9090),
		MetricsPath:    config.GetString(doc, "metrics_path", "/metrics"),
		MetricsEnabled: config.GetBool(doc, "metrics_enabled", true),
		NATSURL:        config.GetNestedString(doc, []string{"nats", "url"}, ""),
		ErrorSubject:   config.GetNestedString(doc, []string{"nats", "error_subject"}, "click.errors"),

		NATSMaxReconnects: config.GetNestedInt(doc, []string{"nats", "max_reconnects"}, -1),
		NATSReconnectWait: time.Duration(reconnectWaitSeconds * float64(time.Second)),
		ShutdownTimeout:   time.Duration(shutdownTimeoutSeconds * float64(time.Second)),

		NATSInsecureSkipVerify: config.GetNestedBool(doc, []string{"nats", "tls_insecure"}, false),
		NATSReconnectTuned:     config.HasNestedKey(doc, []string{"nats", "max_reconnects"}),
	}

	elementsRaw, _ := doc["elements"].([]any)
	for i, raw := range elementsRaw {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("elements[%d]: not an object", i)
		}
		name := config.GetString(entry, "name", "")
		if name == "" {
			return nil, fmt.Errorf("elements[%d]: missing name", i)
		}

		// An element with no "args" of its own falls back to the matching
		// entry in the document's "components" section, if any — a
		// shared-defaults convenience for graphs that reuse the same
		// class under several names with mostly identical configuration.
		args := config.GetStringSlice(entry, "args", nil)
		if !config.HasKey(entry, "args") && config.HasKey(doc, "components") {
			if compCfg, err := config.GetComponentConfig(doc, name); err == nil {
				args = config.GetStringSlice(compCfg, "args", nil)
			}
		}

		gc.Elements = append(gc.Elements, elementSpec{
			Name:     name,
			Class:    config.GetString(entry, "class", ""),
			Landmark: config.GetString(entry, "landmark", fmt.Sprintf("%s:%d", path, i)),
			Args:     args,
		})
	}

	connectionsRaw, _ := doc["connections"].([]any)
	for i, raw := range connectionsRaw {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("connections[%d]: not an object", i)
		}
		gc.Connections = append(gc.Connections, connectionSpec{
			From:     config.GetString(entry, "from", ""),
			FromPort: config.GetInt(entry, "from_port", 0),
			To:       config.GetString(entry, "to", ""),
			ToPort:   config.GetInt(entry, "to_port", 0),
		})
	}

	return gc, nil
}

// validate reports structural problems a config file can have before
// any element is added to a router: duplicate names, classes the
// registry cannot build, and connections that refer to unknown elements.
// Missing names are rejected earlier, by loadGraphConfig.
func (gc *graphConfig) validate(classes classRegistry) error {
	seen := make(map[string]bool, len(gc.Elements))
	for _, e := range gc.Elements {
		if seen[e.Name] {
			return fmt.Errorf("duplicate element name %q", e.Name)
		}
		seen[e.Name] = true
		if _, err := classes.build(e.Class); err != nil {
			return fmt.Errorf("element %q: %w", e.Name, err)
		}
	}
	for _, c := range gc.Connections {
		if !seen[c.From] {
			return fmt.Errorf("connection refers to unknown element %q", c.From)
		}
		if !seen[c.To] {
			return fmt.Errorf("connection refers to unknown element %q", c.To)
		}
	}
	return nil
}
