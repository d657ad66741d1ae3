// Package element implements the element abstraction (C5): the lifecycle
// state machine, the virtual hook contract concrete element classes
// implement, and the port-array bookkeeping a router fills in during
// Finalize.
package element

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhishen/click/config"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/flowcode"
	"github.com/abhishen/click/metric"
	"github.com/abhishen/click/port"
	"github.com/abhishen/click/portspec"
	"github.com/abhishen/click/procspec"
)

var nelementsAllocated int64

// AllocatedCount returns the number of elements currently live (allocated
// via New and not yet torn down via Cleanup). It mirrors the
// process-wide allocation counter used to detect leaks across router
// restarts.
func AllocatedCount() int64 { return atomic.LoadInt64(&nelementsAllocated) }

// RouterView is the narrow slice of router behavior an element's hooks may
// call back into: looking up a sibling element by index, and the total
// element count, standing in for the "master" scheduler-root accessor.
type RouterView interface {
	ElementByIndex(index int) *Element
	NElements() int
}

// Element is the lifecycle envelope around a Hooks implementation: it owns
// the element's name, its place in the router's element array, its port
// arrays, and the state machine governing which hooks may legally be
// called at any given time.
type Element struct {
	mu sync.Mutex

	index    int
	name     string
	landmark string
	router   RouterView

	Hooks Hooks

	state        State
	cleanupStage CleanupStage
	released     bool

	inputs  []port.Port
	outputs []port.Port

	inDisciplines  []procspec.Discipline
	outDisciplines []procspec.Discipline
	flow           *flowcode.Spec

	portsFrozen bool

	configString string
	configFunc   ConfigurationFunc

	handlers map[string]*Handler

	metrics *metric.Metrics
	calls   uint64
}

// New allocates an Element wrapping hooks and wires the back-reference so
// Base's default methods can reach it. The element starts Unattached.
func New(hooks Hooks) *Element {
	atomic.AddInt64(&nelementsAllocated, 1)
	e := &Element{
		Hooks:        hooks,
		state:        Unattached,
		cleanupStage: CleanupNoRouter,
		handlers:     make(map[string]*Handler),
	}
	hooks.SetElement(e)
	e.addCoreHandlers()
	return e
}

// SetMetrics attaches the process-wide metrics sink a router records
// port-transfer, cleanup, and allocation counters through. A router calls
// this once per element right after construction; m may be nil, in which
// case every Record* call below is skipped.
func (e *Element) SetMetrics(m *metric.Metrics) {
	e.metrics = m
	if m != nil {
		m.RecordAllocation(1)
	}
}

func (e *Element) Index() int    { return e.index }
func (e *Element) Name() string  { return e.name }
func (e *Element) Landmark() string { return e.landmark }

func (e *Element) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Element) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Attach records the element's place in a router's element array. It is
// the Unattached -> Attached transition and must happen before
// ResolvePorts.
func (e *Element) Attach(router RouterView, index int, name, landmark string) error {
	if e.State() != Unattached {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, e.className(), "Attach",
			"element already attached")
	}
	e.router = router
	e.index = index
	e.name = name
	e.landmark = landmark
	e.setState(Attached)
	return nil
}

// ResolvePorts parses the element's PortCount, Processing, and FlowCode
// declarations against the counts the router's wiring actually wants,
// allocates the port arrays, and advances Attached -> Preconfigure. It may
// only be called once; after it returns successfully the port count is
// frozen for this element's lifetime.
func (e *Element) ResolvePorts(inWant, outWant int) (nIn, nOut int, err error) {
	if e.State() != Attached {
		return 0, 0, clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, e.className(), "ResolvePorts",
			"ports may only be resolved once, right after Attach")
	}
	if e.portsFrozen {
		return 0, 0, clickerrors.ErrPortFrozen
	}

	spec, err := portspec.Parse(e.Hooks.PortCount())
	if err != nil {
		return 0, 0, clickerrors.Wrap(err, e.className(), "ResolvePorts", "parse port-count spec")
	}
	nIn, nOut, err = spec.Resolve(inWant, outWant)
	if err != nil {
		return 0, 0, clickerrors.Wrap(err, e.className(), "ResolvePorts", "resolve port-count")
	}

	in, out, err := procspec.Resolve(e.Hooks.Processing(), nIn, nOut)
	if err != nil {
		return 0, 0, clickerrors.Wrap(err, e.className(), "ResolvePorts", "resolve processing spec")
	}

	flow, err := flowcode.Parse(e.Hooks.FlowCode())
	if err != nil {
		return 0, 0, clickerrors.Wrap(err, e.className(), "ResolvePorts", "parse flow code")
	}

	e.inputs = make([]port.Port, nIn)
	e.outputs = make([]port.Port, nOut)
	for i := range e.inputs {
		e.inputs[i] = port.New(e)
	}
	for i := range e.outputs {
		e.outputs[i] = port.New(e)
	}
	e.inDisciplines = in
	e.outDisciplines = out
	e.flow = flow
	e.portsFrozen = true

	e.setState(Preconfigure)
	return nIn, nOut, nil
}

func (e *Element) NInputs() int  { return len(e.inputs) }
func (e *Element) NOutputs() int { return len(e.outputs) }

// Input returns a pointer to input port i, for a router to Connect.
func (e *Element) Input(i int) *port.Port { return &e.inputs[i] }

// Output returns a pointer to output port i, for a router to Connect.
func (e *Element) Output(i int) *port.Port { return &e.outputs[i] }

func (e *Element) InputDiscipline(i int) procspec.Discipline  { return e.inDisciplines[i] }
func (e *Element) OutputDiscipline(i int) procspec.Discipline { return e.outDisciplines[i] }

// SetInputDiscipline lets the router overwrite a still-agnostic
// discipline once it has propagated a neighbor's resolved discipline
// across the fixed point (see router.Router.Finalize).
func (e *Element) SetInputDiscipline(i int, d procspec.Discipline) { e.inDisciplines[i] = d }
func (e *Element) SetOutputDiscipline(i int, d procspec.Discipline) { e.outDisciplines[i] = d }

func (e *Element) FlowSpec() *flowcode.Spec { return e.flow }

// InitializePorts marks every port active per its now-resolved
// discipline: an input is active iff pull, an output iff push. A router
// calls this once every discipline is concrete (no ports left agnostic),
// before it attempts to wire any connection, mirroring initialize_ports
// (original_source/lib/element.cc:491-504; spec §4.1, §6).
func (e *Element) InitializePorts() {
	for i := range e.inputs {
		e.inputs[i].SetActive(e.inDisciplines[i] == procspec.Pull)
	}
	for i := range e.outputs {
		e.outputs[i].SetActive(e.outDisciplines[i] == procspec.Push)
	}
}

// Configure runs the element's Configure hook. It requires Preconfigure
// and, on success, advances to Configured; on failure it records
// CleanupConfigureFailed and leaves the state unchanged so the router can
// still call Cleanup.
func (e *Element) Configure(args config.Args, errh ErrorHandler) error {
	if e.State() != Preconfigure {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, e.className(), "Configure",
			"element is not in the preconfigure state")
	}
	if err := e.Hooks.Configure(args, errh); err != nil {
		e.cleanupStage = CleanupConfigureFailed
		return clickerrors.WrapInvalid(clickerrors.ErrConfigureFailed, e.className(), "Configure", err.Error())
	}
	e.configString = config.Join(args)
	e.cleanupStage = CleanupConfigured
	e.setState(Configured)
	return nil
}

// Initialize runs AddHandlers followed by the Initialize hook. It
// requires Configured and, on success, advances to Initialized.
func (e *Element) Initialize(errh ErrorHandler) error {
	if e.State() != Configured {
		return clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, e.className(), "Initialize",
			"element is not in the configured state")
	}
	e.setState(Preinitialize)
	e.Hooks.AddHandlers(e)
	if err := e.Hooks.Initialize(errh); err != nil {
		e.cleanupStage = CleanupInitializeFailed
		return clickerrors.WrapFatal(clickerrors.ErrInitializeFailed, e.className(), "Initialize", err.Error())
	}
	e.cleanupStage = CleanupInitialized
	e.setState(Initialized)
	return nil
}

// MarkRunning advances Initialized -> Running once the whole router has
// finished bringing up every element.
func (e *Element) MarkRunning() {
	if e.State() == Initialized {
		e.cleanupStage = CleanupRouterInitialized
		e.setState(Running)
	}
}

// Cleanup runs the Cleanup hook with whatever stage was reached, moves the
// element to CleanedUp, and releases its slot in the allocation counter.
// Cleanup is idempotent.
func (e *Element) Cleanup(stage CleanupStage) {
	if e.State() == CleanedUp {
		return
	}
	e.cleanupStage = stage
	e.Hooks.Cleanup(stage)
	e.setState(CleanedUp)
	if e.metrics != nil {
		e.metrics.RecordCleanup(stage.String())
	}
	e.mu.Lock()
	if !e.released {
		e.released = true
		atomic.AddInt64(&nelementsAllocated, -1)
		if e.metrics != nil {
			e.metrics.RecordAllocation(-1)
		}
	}
	e.mu.Unlock()
}

// CleanupStage reports the stage that was (or would be) passed to Cleanup
// given the element's current progress, for routers deciding how far
// cleanup should reach during a partial startup failure.
func (e *Element) CleanupStage() CleanupStage { return e.cleanupStage }

// PushOutput sends pkt out on output port i, doing nothing if i is out of
// range or the port is inactive.
func (e *Element) PushOutput(i int, pkt port.Packet) {
	if i < 0 || i >= len(e.outputs) {
		return
	}
	atomic.AddUint64(&e.calls, 1)
	if e.metrics == nil {
		e.outputs[i].Push(pkt)
		return
	}
	start := time.Now()
	e.outputs[i].Push(pkt)
	e.metrics.RecordPortPacket(e.name, "output", e.outDisciplines[i].String())
	e.metrics.RecordTransferDuration(e.name, "output", time.Since(start))
}

// PullInput pulls a packet from input port i, returning nil if i is out of
// range or the port is inactive.
func (e *Element) PullInput(i int) port.Packet {
	if i < 0 || i >= len(e.inputs) {
		return nil
	}
	atomic.AddUint64(&e.calls, 1)
	if e.metrics == nil {
		return e.inputs[i].Pull()
	}
	start := time.Now()
	pkt := e.inputs[i].Pull()
	e.metrics.RecordPortPacket(e.name, "input", e.inDisciplines[i].String())
	e.metrics.RecordTransferDuration(e.name, "input", time.Since(start))
	return pkt
}

// Calls returns the number of PushOutput/PullInput invocations recorded so
// far, the Go analogue of element.cc's per-element _calls counter backing
// the "cycles" handler.
func (e *Element) Calls() uint64 { return atomic.LoadUint64(&e.calls) }

// PushTo and PullFrom implement port.Endpoint, letting a peer port address
// this element directly without knowing its concrete Hooks type.
func (e *Element) PushTo(portIndex int, pkt port.Packet) { e.Hooks.Push(portIndex, pkt) }
func (e *Element) PullFrom(portIndex int) port.Packet     { return e.Hooks.Pull(portIndex) }

func (e *Element) className() string {
	if e.Hooks != nil {
		return e.Hooks.ClassName()
	}
	return "element"
}
