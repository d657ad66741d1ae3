package router

import (
	"testing"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/procspec"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agnosticBoth is a 1-in/1-out element whose processing stays fully
// agnostic, used to exercise propagateDisciplines across a longer chain.
type agnosticBoth struct {
	element.Base
}

func (agnosticBoth) ClassName() string  { return "AgnosticBoth" }
func (agnosticBoth) PortCount() string  { return "1/1" }
func (agnosticBoth) Processing() string { return "a/a" }

// pullSource is a pull source (processing "a/l" on its single output).
type pullSource struct {
	element.Base
}

func (pullSource) ClassName() string  { return "PullSource" }
func (pullSource) PortCount() string  { return "0/1" }
func (pullSource) Processing() string { return "a/l" }

// pullSink is a pull sink (processing "l/a" on its single input).
type pullSink struct {
	element.Base
}

func (pullSink) ClassName() string  { return "PullSink" }
func (pullSink) PortCount() string  { return "1/0" }
func (pullSink) Processing() string { return "l/a" }

// TestPropagateDisciplines_ResolvesImmediateNeighborsOnly builds a chain
// where an agnostic element sits directly between two already-resolved
// neighbors and checks, via a single structural diff over the whole
// resolved topology rather than one assertion per port, that the fixed
// point reaches every agnostic port that touches a resolved neighbor
// across a wire — each port's discipline is decided independently, with
// no coupling between an element's own input and output.
func TestPropagateDisciplines_ResolvesImmediateNeighborsOnly(t *testing.T) {
	r := New(&element.CollectingErrorHandler{}, nil)
	require.NoError(t, r.Add("src", "t:1", &pullSource{}, config.Args{}))
	require.NoError(t, r.Add("mid", "t:2", &agnosticBoth{}, config.Args{}))
	require.NoError(t, r.Add("sink", "t:3", &pullSink{}, config.Args{}))
	require.NoError(t, r.Connect("src", 0, "mid", 0))
	require.NoError(t, r.Connect("mid", 0, "sink", 0))

	require.NoError(t, r.Finalize())

	got := map[string][]string{
		"src.out": {r.Element("src").OutputDiscipline(0).String()},
		"mid.in":  {r.Element("mid").InputDiscipline(0).String()},
		"mid.out": {r.Element("mid").OutputDiscipline(0).String()},
		"sink.in": {r.Element("sink").InputDiscipline(0).String()},
	}
	want := map[string][]string{
		"src.out": {procspec.Pull.String()},
		"mid.in":  {procspec.Pull.String()},
		"mid.out": {procspec.Pull.String()},
		"sink.in": {procspec.Pull.String()},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved discipline topology mismatch (-want +got):\n%s", diff)
	}
}

// TestPropagateDisciplines_UnresolvedChainRejectsConfiguration builds a
// four-element chain with only the source end pinned to pull discipline.
// Because the fixed point only resolves a port that directly touches an
// already-resolved neighbor, and an agnostic element's input and output
// are independent ports, the far side of the chain is left Agnostic —
// which Finalize must reject per §4.3 rather than default to push.
func TestPropagateDisciplines_UnresolvedChainRejectsConfiguration(t *testing.T) {
	r := New(&element.CollectingErrorHandler{}, nil)
	require.NoError(t, r.Add("src", "t:1", &pullSource{}, config.Args{}))
	require.NoError(t, r.Add("mid1", "t:2", &agnosticBoth{}, config.Args{}))
	require.NoError(t, r.Add("mid2", "t:3", &agnosticBoth{}, config.Args{}))
	require.NoError(t, r.Add("sink", "t:4", &agnosticBoth{}, config.Args{}))
	require.NoError(t, r.Connect("src", 0, "mid1", 0))
	require.NoError(t, r.Connect("mid1", 0, "mid2", 0))
	require.NoError(t, r.Connect("mid2", 0, "sink", 0))

	err := r.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, clickerrors.ErrAgnosticUnresolved)
}

// TestPropagateDisciplines_UnconnectedAgnosticPortRejectsConfiguration
// checks that an agnostic port with no wire at all — never visited by the
// fixed point's connection walk — still trips ErrAgnosticUnresolved
// rather than being silently left agnostic or defaulted.
func TestPropagateDisciplines_UnconnectedAgnosticPortRejectsConfiguration(t *testing.T) {
	r := New(&element.CollectingErrorHandler{}, nil)
	require.NoError(t, r.Add("lonely", "t:1", &agnosticBoth{}, config.Args{}))

	err := r.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, clickerrors.ErrAgnosticUnresolved)
}
