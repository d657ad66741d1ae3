// Package router implements the router (C8): the container that owns a
// set of elements, wires their ports together, drives each element
// through the lifecycle in configure-phase order, and answers topology
// questions (reachability) used by handlers and diagnostics.
package router

import (
	"fmt"
	"sort"
	"sync"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/metric"
	"github.com/abhishen/click/procspec"
	"github.com/google/uuid"
)

// connection is a pending Connect call, resolved during Finalize once
// every element's port counts are known.
type connection struct {
	fromName string
	fromPort int
	toName   string
	toPort   int
}

// pendingElement is an element queued by Add, along with the
// configuration it will receive once Finalize runs Configure.
type pendingElement struct {
	name     string
	landmark string
	hooks    element.Hooks
	args     config.Args
}

// Router owns every element in one running graph.
type Router struct {
	mu sync.RWMutex

	errh      element.ErrorHandler
	metrics   *metric.Metrics
	registrar metric.MetricsRegistrar

	pending     []pendingElement
	connections []connection

	elements []*element.Element
	byName   map[string]*element.Element

	state routerState
}

type routerState int

const (
	stateBuilding routerState = iota
	stateFinalized
	stateRunning
	stateShutdown
)

// New creates an empty Router. errh receives every error reported during
// Configure/Initialize/Cleanup; metrics may be nil to disable recording.
func New(errh element.ErrorHandler, metrics *metric.Metrics) *Router {
	return &Router{
		errh:    errh,
		metrics: metrics,
		byName:  make(map[string]*element.Element),
	}
}

// Add queues an element under name, to be attached during Finalize. Names
// must be unique within a router. landmark is a free-form string (e.g.
// "config.click:12") surfaced through error messages and the element's
// handlers.
func (r *Router) Add(name, landmark string, hooks element.Hooks, args config.Args) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateBuilding {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Add",
			"elements can only be added before Finalize")
	}
	if _, exists := r.byName[name]; exists {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Add",
			fmt.Sprintf("element name %q already in use", name))
	}

	r.byName[name] = nil // reserve the name
	r.pending = append(r.pending, pendingElement{name: name, landmark: landmark, hooks: hooks, args: args})
	return nil
}

// SetMetricsRegistrar installs the shared registrar element classes
// implementing metric.MetricsAware use to register their own custom
// metrics, beyond the fixed core set reported through metrics. Call this,
// if at all, before Finalize; a nil registrar (the default) disables
// custom metric registration without otherwise affecting a router.
func (r *Router) SetMetricsRegistrar(reg metric.MetricsRegistrar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrar = reg
}

// Connect queues a port connection, resolved once every element's ports
// are frozen during Finalize.
func (r *Router) Connect(fromName string, fromPort int, toName string, toPort int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateBuilding {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Connect",
			"connections can only be added before Finalize")
	}
	r.connections = append(r.connections, connection{fromName, fromPort, toName, toPort})
	return nil
}

// ElementByIndex implements element.RouterView.
func (r *Router) ElementByIndex(index int) *element.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.elements) {
		return nil
	}
	return r.elements[index]
}

// NElements implements element.RouterView.
func (r *Router) NElements() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// Element looks up a live element by name, or nil if absent.
func (r *Router) Element(name string) *element.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Finalize attaches every pending element, resolves port counts from the
// queued connections, propagates agnostic disciplines to a fixed point,
// wires the ports, then runs Configure and Initialize in ascending
// ConfigurePhase order. Every element's Configure runs even after one
// fails, so each configure error reaches the error handler; if any failed,
// Initialize is skipped. Initialize stops at its first failure. Any
// failure aborts and cleans up everything brought up so far.
func (r *Router) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateBuilding {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Finalize",
			"Finalize may only run once")
	}

	// Attach phase: fix each element's index and name.
	r.elements = make([]*element.Element, 0, len(r.pending))
	for i, pe := range r.pending {
		e := element.New(pe.hooks)
		if err := e.Attach(r, i, pe.name, pe.landmark); err != nil {
			r.abort(clickerrors.WrapFatal(err, "router", "Finalize", "attach "+pe.name))
			return err
		}
		e.SetMetrics(r.metrics)
		r.elements = append(r.elements, e)
		r.byName[pe.name] = e

		if r.registrar != nil {
			if aware, ok := e.Hooks.(metric.MetricsAware); ok {
				if err := aware.RegisterElementMetrics(pe.name, r.registrar); err != nil {
					r.abort(clickerrors.WrapFatal(err, "router", "Finalize", "register metrics for "+pe.name))
					return err
				}
			}
		}
	}

	// Count how many connections want each port, to resolve ranged
	// port-count specs before allocating any port arrays.
	inWant := make(map[string]int)
	outWant := make(map[string]int)
	for _, c := range r.connections {
		if n := c.fromPort + 1; n > outWant[c.fromName] {
			outWant[c.fromName] = n
		}
		if n := c.toPort + 1; n > inWant[c.toName] {
			inWant[c.toName] = n
		}
	}

	for _, pe := range r.pending {
		e := r.byName[pe.name]
		if _, _, err := e.ResolvePorts(inWant[pe.name], outWant[pe.name]); err != nil {
			r.abort(clickerrors.WrapFatal(err, "router", "Finalize", "resolve ports for "+pe.name))
			return err
		}
	}

	// Resolve every port's discipline to a concrete push or pull value
	// before wiring anything, so InitializePorts below has the final word
	// on which side of each connection is active.
	if err := r.propagateDisciplines(); err != nil {
		r.abort(clickerrors.WrapFatal(err, "router", "Finalize", "propagate disciplines"))
		return err
	}
	for _, e := range r.elements {
		e.InitializePorts()
	}

	// Wire the queued connections now that every port array is allocated
	// and every port knows whether it is active. Connect only succeeds on
	// the active side of a wire (input active iff pull, output active iff
	// push); the passive side's attempt returns ErrPortInactive, which is
	// the expected, non-fatal outcome for that side (spec §6, §7
	// ConnectionInvalid) and not reported as a Finalize failure.
	for _, c := range r.connections {
		from := r.byName[c.fromName]
		to := r.byName[c.toName]
		if from == nil || to == nil {
			err := clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Finalize",
				fmt.Sprintf("connect refers to unknown element (%s -> %s)", c.fromName, c.toName))
			r.abort(err)
			return err
		}
		if c.fromPort < 0 || c.fromPort >= from.NOutputs() || c.toPort < 0 || c.toPort >= to.NInputs() {
			err := clickerrors.WrapInvalid(clickerrors.ErrPortInvalidCount, "router", "Finalize",
				fmt.Sprintf("%s[%d] -> %s[%d] out of range", c.fromName, c.fromPort, c.toName, c.toPort))
			r.abort(err)
			return err
		}
		_ = from.Output(c.fromPort).Connect(to, c.toPort)
		_ = to.Input(c.toPort).Connect(from, c.fromPort)
	}

	// Configure/Initialize in ascending ConfigurePhase order, per element.
	order := r.phaseOrder()
	argsByName := make(map[string]config.Args, len(r.pending))
	for _, pe := range r.pending {
		argsByName[pe.name] = pe.args
	}

	var configureErr error
	for _, e := range order {
		if err := e.Configure(argsByName[e.Name()], r.errh); err != nil {
			r.recordFailure(e, "configure")
			if r.errh != nil {
				r.errh.Error(err)
			}
			if configureErr == nil {
				configureErr = err
			}
		}
	}
	if configureErr != nil {
		r.abort(nil)
		return configureErr
	}
	for _, e := range order {
		if err := e.Initialize(r.errh); err != nil {
			r.recordFailure(e, "initialize")
			r.abort(err)
			return err
		}
	}

	for _, e := range r.elements {
		e.MarkRunning()
		if r.metrics != nil {
			r.metrics.RecordState(e.Name(), e.Hooks.ClassName(), int(e.State()))
		}
	}

	r.state = stateRunning
	return nil
}

func (r *Router) recordFailure(e *element.Element, phase string) {
	if r.metrics == nil {
		return
	}
	if phase == "configure" {
		r.metrics.RecordConfigureFailure(e.Name(), e.Hooks.ClassName())
	} else {
		r.metrics.RecordInitializeFailure(e.Name(), e.Hooks.ClassName())
	}
}

// phaseOrder returns every element sorted by ascending ConfigurePhase,
// breaking ties by index so configuration order stays deterministic.
func (r *Router) phaseOrder() []*element.Element {
	order := make([]*element.Element, len(r.elements))
	copy(order, r.elements)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Hooks.ConfigurePhase() < order[j].Hooks.ConfigurePhase()
	})
	return order
}

// propagateDisciplines repeatedly walks every connection, copying a
// resolved (push or pull) discipline across any still-agnostic port on
// the other end of a wire, until a fixed point is reached. Any port — on
// either end of a wire, or unconnected altogether — still Agnostic once
// the fixed point settles violates the §4.3 resolution invariant, so
// Finalize must reject the configuration rather than pick a default for
// it (errors.ErrAgnosticUnresolved).
func (r *Router) propagateDisciplines() error {
	for {
		changed := false
		for _, c := range r.connections {
			from := r.byName[c.fromName]
			to := r.byName[c.toName]
			if from == nil || to == nil {
				continue
			}
			// Out-of-range ports are rejected when the wires are connected.
			if c.fromPort < 0 || c.fromPort >= from.NOutputs() || c.toPort < 0 || c.toPort >= to.NInputs() {
				continue
			}
			fd := from.OutputDiscipline(c.fromPort)
			td := to.InputDiscipline(c.toPort)

			switch {
			case fd == procspec.Agnostic && td != procspec.Agnostic:
				from.SetOutputDiscipline(c.fromPort, td)
				changed = true
			case td == procspec.Agnostic && fd != procspec.Agnostic:
				to.SetInputDiscipline(c.toPort, fd)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, e := range r.elements {
		for i := 0; i < e.NInputs(); i++ {
			if e.InputDiscipline(i) == procspec.Agnostic {
				return clickerrors.WrapInvalid(clickerrors.ErrAgnosticUnresolved, "router", "Finalize",
					fmt.Sprintf("%s input %d discipline unresolved after fixed point", e.Name(), i))
			}
		}
		for i := 0; i < e.NOutputs(); i++ {
			if e.OutputDiscipline(i) == procspec.Agnostic {
				return clickerrors.WrapInvalid(clickerrors.ErrAgnosticUnresolved, "router", "Finalize",
					fmt.Sprintf("%s output %d discipline unresolved after fixed point", e.Name(), i))
			}
		}
	}
	return nil
}

// abort runs Cleanup on every attached element in reverse configure_phase
// order, using each element's own recorded CleanupStage, and marks the
// router as shut down. Reverse configure_phase, not reverse attachment,
// matches the teardown order elements configured earliest (lowest phase)
// expect to survive longest (spec §4.5).
func (r *Router) abort(cause error) {
	if cause != nil && r.errh != nil {
		r.errh.Error(cause)
	}
	order := r.phaseOrder()
	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		e.Cleanup(e.CleanupStage())
		r.unregisterElementMetrics(e)
	}
	r.state = stateShutdown
}

// Shutdown tears down every element in reverse configure_phase order with
// CleanupRouterInitialized, the orderly-shutdown stage (spec §4.5).
func (r *Router) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateShutdown {
		return
	}
	order := r.phaseOrder()
	for i := len(order) - 1; i >= 0; i-- {
		order[i].Cleanup(element.CleanupRouterInitialized)
		r.unregisterElementMetrics(order[i])
	}
	r.state = stateShutdown
}

// unregisterElementMetrics undoes RegisterElementMetrics for e, if e's
// hooks implement metric.MetricsAware and a registrar is installed.
func (r *Router) unregisterElementMetrics(e *element.Element) {
	if r.registrar == nil {
		return
	}
	if aware, ok := e.Hooks.(metric.MetricsAware); ok {
		aware.UnregisterElementMetrics(e.Name(), r.registrar)
	}
}

// Reachable reports every element name reachable from start by following
// only wires permitted by each element's flow code — a directed
// reachability query, not the undirected connected-components view the
// teacher's flow graph package computes, but grounded on the same DFS
// structure.
//
// This walks the router's own connection list rather than each port's
// Peer(): once InitializePorts has run, only the active side of a wire
// holds a peer, so a pull connection's upstream output carries none —
// the router's connection list stays the topology's source of truth
// regardless of which side ended up driving the transfer.
func (r *Router) Reachable(start string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byName[start]; !ok {
		return nil, clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Reachable",
			"unknown element "+start)
	}

	outgoing := make(map[string][]connection, len(r.connections))
	for _, c := range r.connections {
		outgoing[c.fromName] = append(outgoing[c.fromName], c)
	}

	// frontierEntry pairs an element name with the input port a packet is
	// assumed to have entered on; inPort -1 marks start itself, where no
	// entry port is known so every output is assumed reachable.
	type frontierEntry struct {
		name   string
		inPort int
	}

	visited := map[string]bool{start: true}
	order := []string{start}
	stack := []frontierEntry{{start, -1}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := r.byName[item.name]

		var flows []bool
		if item.inPort >= 0 {
			flows = e.FlowSpec().PortFlow(false, item.inPort, e.NInputs(), e.NOutputs())
		}

		for _, c := range outgoing[item.name] {
			if flows != nil && (c.fromPort >= len(flows) || !flows[c.fromPort]) {
				continue
			}
			if !visited[c.toName] {
				visited[c.toName] = true
				order = append(order, c.toName)
			}
			stack = append(stack, frontierEntry{c.toName, c.toPort})
		}
	}

	sort.Strings(order[1:])
	return order, nil
}

// Hotswap atomically replaces the hooks behind name: newHooks' TakeState
// hook first takes over the old hooks' state, then newHooks is swapped in as the
// live implementation. Both elements must already share the same port
// counts; Hotswap does not re-run Finalize's wiring.
//
// Every call is tagged with a fresh correlation id, returned on both
// success and failure, so a caller can thread the same id through its
// own logging to join "a swap was requested" with "this is the result"
// when several hotswaps are in flight against the same router.
func (r *Router) Hotswap(name string, newHooks element.Hooks, errh element.ErrorHandler) (swapID string, err error) {
	swapID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byName[name]
	if !ok || old == nil {
		err = clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "router", "Hotswap", "unknown element "+name+" (swap "+swapID+")")
		if r.metrics != nil {
			r.metrics.RecordLiveReconfigure(name, "unknown_element")
		}
		return swapID, err
	}

	if err = newHooks.TakeState(old.Hooks, errh); err != nil {
		err = clickerrors.WrapFatal(err, "router", "Hotswap", "take state for "+name+" (swap "+swapID+")")
		if r.metrics != nil {
			r.metrics.RecordLiveReconfigure(name, "rejected")
		}
		return swapID, err
	}

	old.Hooks = newHooks
	newHooks.SetElement(old)
	if r.metrics != nil {
		r.metrics.RecordLiveReconfigure(name, "applied")
	}
	return swapID, nil
}
