// Package standard collects small, broadly useful element classes in the
// spirit of elements/standard in the original distribution: no
// application-specific logic, just basic dataflow plumbing.
package standard

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/port"
)

// RandomSwitch sends each input packet out one randomly chosen output,
// weighted by a configurable per-output weight table. With no
// configuration, every output has equal weight (matching
// elements/standard/randomswitch.cc's uniform random choice).
type RandomSwitch struct {
	element.Base

	mu      sync.Mutex
	weights []int
	total   int
}

func (s *RandomSwitch) ClassName() string  { return "RandomSwitch" }
func (s *RandomSwitch) PortCount() string  { return "1/-" }
func (s *RandomSwitch) Processing() string { return "a/a" }

func (s *RandomSwitch) Configure(args config.Args, errh element.ErrorHandler) error {
	e := s.Element()
	n := e.NOutputs()
	weights := make([]int, n)
	for i := range weights {
		weights[i] = 1
	}

	for i := 0; i < n && i < len(args); i++ {
		if args[i] == "" {
			continue
		}
		w, err := strconv.Atoi(strings.TrimSpace(args[i]))
		if err != nil || w < 0 {
			err := clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "RandomSwitch", "Configure",
				"weight must be a non-negative integer")
			errh.Error(err)
			return err
		}
		weights[i] = w
	}
	s.setWeights(weights)
	return nil
}

func (s *RandomSwitch) CanLiveReconfigure() bool { return true }

// LiveReconfigure replaces the weight table from args the same way
// Configure does, leaving the prior table untouched on any error (the
// element-level rollback is handled by element.Element.LiveReconfigure).
func (s *RandomSwitch) LiveReconfigure(args config.Args, errh element.ErrorHandler) error {
	return s.Configure(args, errh)
}

func (s *RandomSwitch) setWeights(weights []int) {
	total := 0
	for _, w := range weights {
		total += w
	}
	s.mu.Lock()
	s.weights = weights
	s.total = total
	s.mu.Unlock()
}

// Push chooses an output in proportion to its weight and forwards pkt
// there unchanged. An all-zero weight table (every output disabled)
// drops the packet.
func (s *RandomSwitch) Push(portIndex int, pkt port.Packet) {
	e := s.Element()
	out := s.choose()
	if out < 0 {
		return
	}
	e.PushOutput(out, pkt)
}

func (s *RandomSwitch) choose() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total <= 0 {
		return -1
	}
	r := rand.Intn(s.total)
	for i, w := range s.weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(s.weights) - 1
}

// Weights returns a copy of the current per-output weight table, for the
// "weights" handler and for tests.
func (s *RandomSwitch) Weights() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.weights))
	copy(out, s.weights)
	return out
}

func (s *RandomSwitch) AddHandlers(e *element.Element) {
	e.AddReadHandler("weights", func(e *element.Element) (string, error) {
		weights := s.Weights()
		parts := make([]string, len(weights))
		for i, w := range weights {
			parts[i] = strconv.Itoa(w)
		}
		return strings.Join(parts, " "), nil
	})
}
