package element

import (
	"github.com/abhishen/click/config"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/port"
)

// Hooks is the full virtual-dispatch surface an element class implements.
// Concrete element types embed Base to pick up sane defaults for every
// method they don't need to override — Go has no default interface
// methods, so Base stands in for the "mostly virtual, rarely overridden"
// base class the original design assumes.
type Hooks interface {
	// ClassName identifies the element class, independent of the instance
	// name the router gave this element.
	ClassName() string
	// Cast performs a capability-style downcast by name, returning nil if
	// this element does not provide it.
	Cast(name string) any

	PortCount() string
	Processing() string
	FlowCode() string
	Flags() string
	ConfigurePhase() int

	Configure(args config.Args, errh ErrorHandler) error
	AddHandlers(e *Element)
	Initialize(errh ErrorHandler) error
	TakeState(old Hooks, errh ErrorHandler) error
	HotswapElement() Hooks
	Cleanup(stage CleanupStage)

	CanLiveReconfigure() bool
	LiveReconfigure(args config.Args, errh ErrorHandler) error

	Push(port int, pkt port.Packet)
	Pull(port int) port.Packet
	SimpleAction(pkt port.Packet) port.Packet

	RunTask() bool
	RunTimer()
	Selected(fd int)
	LLRPC(cmd uint32, data []byte) ([]byte, error)

	// SetElement wires the owning *Element back into the hooks value, so
	// Base's default methods (Push/Pull/Cast) can reach the element's own
	// ports and the outer, possibly-overridden Hooks value.
	SetElement(e *Element)
}

// Base implements Hooks with the defaults described in the processing
// model: fully agnostic ports, the "x/x" complete flow code, no live
// reconfiguration, and push/pull bridged through SimpleAction. Concrete
// element types embed Base and override whichever methods their class
// actually needs.
type Base struct {
	elt *Element
}

func (b *Base) SetElement(e *Element) { b.elt = e }

// Element returns the owning *Element, or nil before SetElement has run.
func (b *Base) Element() *Element { return b.elt }

func (b *Base) ClassName() string { return "" }

func (b *Base) Cast(name string) any {
	if b.elt == nil || b.elt.Hooks == nil {
		return nil
	}
	if name == b.elt.Hooks.ClassName() {
		return b.elt.Hooks
	}
	return nil
}

func (b *Base) PortCount() string  { return "" }
func (b *Base) Processing() string { return "" }
func (b *Base) FlowCode() string   { return "" }
func (b *Base) Flags() string      { return "" }

func (b *Base) ConfigurePhase() int { return ConfigurePhaseDefault }

func (b *Base) Configure(args config.Args, errh ErrorHandler) error {
	if len(args) != 0 {
		err := clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, b.className(), "Configure",
			"element takes no configuration arguments")
		errh.Error(err)
		return err
	}
	return nil
}

func (b *Base) AddHandlers(e *Element) {}

func (b *Base) Initialize(errh ErrorHandler) error { return nil }

func (b *Base) TakeState(old Hooks, errh ErrorHandler) error { return nil }

func (b *Base) HotswapElement() Hooks { return nil }

func (b *Base) Cleanup(stage CleanupStage) {}

func (b *Base) CanLiveReconfigure() bool { return false }

func (b *Base) LiveReconfigure(args config.Args, errh ErrorHandler) error {
	if b.elt == nil || b.elt.Hooks == nil {
		return clickerrors.ErrLiveReconfigureRejected
	}
	// Default per the live-reconfiguration contract: delegate to Configure.
	return b.elt.Hooks.Configure(args, errh)
}

// Push is the default push bridge: run SimpleAction on the incoming
// packet and, if it produces output, send it out on output port 0. An
// element with more than one output, or with asymmetric processing, must
// override Push directly (see elements/standard.RandomSwitch).
func (b *Base) Push(portIndex int, pkt port.Packet) {
	if b.elt == nil || b.elt.Hooks == nil {
		return
	}
	if out := b.elt.Hooks.SimpleAction(pkt); out != nil {
		b.elt.PushOutput(0, out)
	}
}

// Pull is the default pull bridge: pull from input port 0 and run
// SimpleAction on whatever comes back.
func (b *Base) Pull(portIndex int) port.Packet {
	if b.elt == nil || b.elt.Hooks == nil {
		return nil
	}
	in := b.elt.PullInput(0)
	if in == nil {
		return nil
	}
	return b.elt.Hooks.SimpleAction(in)
}

// SimpleAction is the identity transform. Elements that process packets
// one-in-one-out override this instead of Push/Pull directly.
func (b *Base) SimpleAction(pkt port.Packet) port.Packet { return pkt }

func (b *Base) RunTask() bool   { return false }
func (b *Base) RunTimer()       {}
func (b *Base) Selected(fd int) {}

func (b *Base) LLRPC(cmd uint32, data []byte) ([]byte, error) {
	return nil, clickerrors.ErrLLRPCUnknown
}

func (b *Base) className() string {
	if b.elt != nil && b.elt.Hooks != nil {
		return b.elt.Hooks.ClassName()
	}
	return "element.Base"
}
