// Package port implements the Port abstraction (C1): a single input or
// output endpoint on an Element, carrying at most one peer reference and
// driving packet transfer across that peer when active.
package port

import (
	"sync/atomic"

	clickerrors "github.com/abhishen/click/errors"
)

// Packet is an opaque payload. The core places no requirement on its
// structure; wire format is out of scope for this module.
type Packet = any

// Endpoint is the subset of Element behavior a Port needs from its peer:
// the ability to accept a pushed packet on one of its input ports, and to
// produce a packet from one of its output ports on demand. Element
// implements this interface so that ports can reference their owner (and
// their peer) without port importing element, avoiding an import cycle.
type Endpoint interface {
	PushTo(portIndex int, pkt Packet)
	PullFrom(portIndex int) Packet
}

// Inactive is the sentinel peer-port-index meaning "inactive or
// unconnected" (spec §3, §4.1).
const Inactive = -1

// Port is an endpoint record: an optional owner back-reference, a peer
// reference plus its index, and optional packet statistics.
type Port struct {
	owner     Endpoint
	peer      Endpoint
	peerIndex int
	npackets  uint64
	active    bool
}

// New constructs a Port with no peer and no discipline gating applied
// yet. owner may be nil. The port starts active so that code exercising
// a Port directly, without a router's discipline resolution in front of
// it (unit tests, standalone elements), can Connect freely; a router
// narrows this with SetActive once it knows which side of each wire the
// resolved discipline puts in charge of the transfer (spec §4.1, §6).
func New(owner Endpoint) Port {
	return Port{owner: owner, peerIndex: Inactive, active: true}
}

// Owner returns the element this port belongs to, or nil.
func (p *Port) Owner() Endpoint { return p.owner }

// Peer returns the connected peer element, or nil if inactive.
func (p *Port) Peer() Endpoint { return p.peer }

// PeerIndex returns the index of this port within the peer's
// complementary port array, or Inactive.
func (p *Port) PeerIndex() int { return p.peerIndex }

// Allowed reports whether the port is active, i.e. participates in a
// single-peer transfer (spec §4.1).
func (p *Port) Allowed() bool {
	return p.peer != nil && p.peerIndex != Inactive
}

// Active reports whether this port is permitted to hold a peer and drive
// a transfer through it, per the discipline-gated activity a router
// assigns during initialization: an input is active iff its resolved
// discipline is pull, an output iff push (spec §4.1, §6; ground truth
// original_source/lib/element.cc:491-504, initialize_ports).
func (p *Port) Active() bool { return p.active }

// SetActive records whether the port is allowed to hold a peer. Turning
// a port inactive also clears any existing peer, so an inactive port
// never holds one (element.cc's initialize_ports always rebuilds the
// port array from scratch rather than leaving a stale peer behind).
func (p *Port) SetActive(active bool) {
	p.active = active
	if !active {
		p.Disconnect()
	}
}

// Connect installs a peer reference, making the port allowed. It fails
// with ErrPortInactive on a port SetActive(false) has marked inactive,
// mirroring connect_port's refusal to wire the passive side of a
// connection (element.cc:506-514; spec §6, §7 invalid connection).
func (p *Port) Connect(peer Endpoint, peerIndex int) error {
	if !p.active {
		return clickerrors.ErrPortInactive
	}
	p.peer = peer
	p.peerIndex = peerIndex
	return nil
}

// Disconnect clears the peer reference. Allowed reports false
// afterward regardless of the port's Active gating.
func (p *Port) Disconnect() {
	p.peer = nil
	p.peerIndex = Inactive
}

// Push transfers a packet to the peer input. A no-op on an inactive port;
// the caller must treat the packet as consumed either way.
func (p *Port) Push(pkt Packet) {
	if !p.Allowed() {
		return
	}
	atomic.AddUint64(&p.npackets, 1)
	p.peer.PushTo(p.peerIndex, pkt)
}

// Pull fetches a packet from the peer output, or nil on an inactive port
// or when the peer has nothing to offer.
func (p *Port) Pull() Packet {
	if !p.Allowed() {
		return nil
	}
	pkt := p.peer.PullFrom(p.peerIndex)
	if pkt != nil {
		atomic.AddUint64(&p.npackets, 1)
	}
	return pkt
}

// Packets returns the number of packets transferred through this port
// since construction.
func (p *Port) Packets() uint64 {
	return atomic.LoadUint64(&p.npackets)
}
