package router

import (
	"testing"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthrough is a 1-in/1-out element used to build test pipelines. It
// records every packet it sees, by name, for assertions.
type passthrough struct {
	element.Base
	name string
	seen *[]string
}

func (p *passthrough) ClassName() string  { return "Passthrough" }
func (p *passthrough) PortCount() string  { return "1/1" }
func (p *passthrough) Processing() string { return "h/h" }

func (p *passthrough) SimpleAction(pkt any) any {
	*p.seen = append(*p.seen, p.name+":"+pkt.(string))
	return pkt
}

func newPipeline(t *testing.T, seen *[]string) *Router {
	t.Helper()
	r := New(&element.CollectingErrorHandler{}, nil)

	require.NoError(t, r.Add("a", "test:1", &passthrough{name: "a", seen: seen}, config.Args{}))
	require.NoError(t, r.Add("b", "test:2", &passthrough{name: "b", seen: seen}, config.Args{}))
	require.NoError(t, r.Connect("a", 0, "b", 0))
	return r
}

func TestRouter_FinalizeWiresAndRunsElements(t *testing.T) {
	var seen []string
	r := newPipeline(t, &seen)

	require.NoError(t, r.Finalize())

	a := r.Element("a")
	b := r.Element("b")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, element.Running, a.State())
	assert.Equal(t, element.Running, b.State())

	a.PushTo(0, "pkt")
	assert.Equal(t, []string{"a:pkt", "b:pkt"}, seen)
}

func TestRouter_RejectsDuplicateNames(t *testing.T) {
	r := New(&element.CollectingErrorHandler{}, nil)
	require.NoError(t, r.Add("a", "l:1", &passthrough{name: "a"}, config.Args{}))
	err := r.Add("a", "l:2", &passthrough{name: "a2"}, config.Args{})
	assert.Error(t, err)
}

func TestRouter_ConnectOutOfRangeFailsFinalize(t *testing.T) {
	r := New(&element.CollectingErrorHandler{}, nil)
	require.NoError(t, r.Add("a", "l:1", &passthrough{name: "a"}, config.Args{}))
	require.NoError(t, r.Add("b", "l:2", &passthrough{name: "b"}, config.Args{}))
	require.NoError(t, r.Connect("a", 5, "b", 0))

	err := r.Finalize()
	assert.Error(t, err)
}

func TestRouter_Reachable(t *testing.T) {
	var seen []string
	r := newPipeline(t, &seen)
	require.NoError(t, r.Finalize())

	names, err := r.Reachable("a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestRouter_ShutdownCleansUpEveryElement(t *testing.T) {
	var seen []string
	r := newPipeline(t, &seen)
	require.NoError(t, r.Finalize())

	r.Shutdown()
	assert.Equal(t, element.CleanedUp, r.Element("a").State())
	assert.Equal(t, element.CleanedUp, r.Element("b").State())
}
