package testutil

import (
	"sync"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	"github.com/abhishen/click/port"
)

// MockElement is a stand-in element.Hooks implementation for exercising
// the element and router packages without writing a bespoke type per
// test. Every hook a caller cares about can be overridden with a Func
// field; anything left nil falls back to element.Base's default, and
// every call (stubbed or not) is counted.
//
// This mirrors the overridable-Func-field-plus-call-counter shape of a
// generic mock component used across a codebase's own test suites,
// adapted to the element lifecycle instead of a start/stop/process one.
type MockElement struct {
	element.Base

	Class      string
	PortSpec   string
	Discipline string
	Flow       string

	ConfigureFunc        func(args config.Args, errh element.ErrorHandler) error
	InitializeFunc       func(errh element.ErrorHandler) error
	CleanupFunc          func(stage element.CleanupStage)
	SimpleActionFunc     func(pkt port.Packet) port.Packet
	PushFunc             func(portIndex int, pkt port.Packet)
	PullFunc             func(portIndex int) port.Packet
	CanLiveReconfigure_  bool
	LiveReconfigureFunc  func(args config.Args, errh element.ErrorHandler) error

	mu sync.Mutex

	ConfigureCalls    int
	InitializeCalls   int
	CleanupCalls      []element.CleanupStage
	SimpleActionCalls int
	PushCalls         int
	PullCalls         int

	LastConfigureArgs config.Args
}

func (m *MockElement) ClassName() string {
	if m.Class != "" {
		return m.Class
	}
	return "MockElement"
}

func (m *MockElement) PortCount() string {
	if m.PortSpec != "" {
		return m.PortSpec
	}
	return "1/1"
}

func (m *MockElement) Processing() string {
	if m.Discipline != "" {
		return m.Discipline
	}
	return "a/a"
}

func (m *MockElement) FlowCode() string {
	return m.Flow
}

func (m *MockElement) Configure(args config.Args, errh element.ErrorHandler) error {
	m.mu.Lock()
	m.ConfigureCalls++
	m.LastConfigureArgs = args
	m.mu.Unlock()
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(args, errh)
	}
	return m.Base.Configure(args, errh)
}

func (m *MockElement) Initialize(errh element.ErrorHandler) error {
	m.mu.Lock()
	m.InitializeCalls++
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(errh)
	}
	return nil
}

func (m *MockElement) Cleanup(stage element.CleanupStage) {
	m.mu.Lock()
	m.CleanupCalls = append(m.CleanupCalls, stage)
	m.mu.Unlock()
	if m.CleanupFunc != nil {
		m.CleanupFunc(stage)
	}
}

func (m *MockElement) SimpleAction(pkt port.Packet) port.Packet {
	m.mu.Lock()
	m.SimpleActionCalls++
	m.mu.Unlock()
	if m.SimpleActionFunc != nil {
		return m.SimpleActionFunc(pkt)
	}
	return pkt
}

func (m *MockElement) Push(portIndex int, pkt port.Packet) {
	m.mu.Lock()
	m.PushCalls++
	m.mu.Unlock()
	if m.PushFunc != nil {
		m.PushFunc(portIndex, pkt)
		return
	}
	m.Base.Push(portIndex, pkt)
}

func (m *MockElement) Pull(portIndex int) port.Packet {
	m.mu.Lock()
	m.PullCalls++
	m.mu.Unlock()
	if m.PullFunc != nil {
		return m.PullFunc(portIndex)
	}
	return m.Base.Pull(portIndex)
}

func (m *MockElement) CanLiveReconfigure() bool { return m.CanLiveReconfigure_ }

func (m *MockElement) LiveReconfigure(args config.Args, errh element.ErrorHandler) error {
	if m.LiveReconfigureFunc != nil {
		return m.LiveReconfigureFunc(args, errh)
	}
	return m.Configure(args, errh)
}

// Calls returns a snapshot of every call counter, for assertions that
// want to check several at once.
func (m *MockElement) Calls() (configure, initialize, simpleAction, push, pull int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConfigureCalls, m.InitializeCalls, m.SimpleActionCalls, m.PushCalls, m.PullCalls
}

// NoopRouter is a element.RouterView that knows about no elements, for
// tests that only need to Attach a single element in isolation.
type NoopRouter struct{}

func (NoopRouter) ElementByIndex(index int) *element.Element { return nil }
func (NoopRouter) NElements() int                            { return 0 }

// CapturePort is a port.Endpoint that records every packet pushed to it,
// for tests that wire a MockElement's output to something observable.
type CapturePort struct {
	mu       sync.Mutex
	Received []port.Packet
}

func (c *CapturePort) PushTo(portIndex int, pkt port.Packet) {
	c.mu.Lock()
	c.Received = append(c.Received, pkt)
	c.mu.Unlock()
}

func (c *CapturePort) PullFrom(portIndex int) port.Packet { return nil }

// Snapshot returns a copy of every packet received so far.
func (c *CapturePort) Snapshot() []port.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]port.Packet, len(c.Received))
	copy(out, c.Received)
	return out
}
