package element

import (
	"strings"
	"testing"

	"github.com/abhishen/click/config"
	clickerrors "github.com/abhishen/click/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement_HandlersListingUsesNameTabFlags(t *testing.T) {
	fe := &fakeElement{portCount: "0/0"}
	e := New(fe)
	require.NoError(t, e.AddReadHandler("greeting", func(e *Element) (string, error) { return "hi", nil }))
	require.NoError(t, e.AddWriteHandler("sink", func(e *Element, value string, errh ErrorHandler) error { return nil }))

	listing, err := e.ReadHandler("handlers")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	got := map[string]bool{}
	for _, line := range lines {
		got[line] = true
	}
	assert.True(t, got["greeting\tr"])
	assert.True(t, got["sink\tw"])
	assert.True(t, got["config\trw"])
}

func TestElement_CyclesHandlerTracksCalls(t *testing.T) {
	fe := &fakeElement{portCount: "0/1"}
	e := New(fe)
	require.NoError(t, e.Attach(fakeRouter{}, 0, "e0", "l:1"))
	_, _, err := e.ResolvePorts(0, 1)
	require.NoError(t, err)

	before, err := e.ReadHandler("cycles")
	require.NoError(t, err)
	assert.Equal(t, "0\n", before)

	sink := &fakeEndpointElement{onPush: func(pkt any) {}}
	e.Output(0).Connect(sink, 0)
	e.PushOutput(0, "x")

	after, err := e.ReadHandler("cycles")
	require.NoError(t, err)
	assert.Equal(t, "1\n", after)
}

func TestElement_PositionalAndKeywordReadHandlers(t *testing.T) {
	fe := &fakeElement{portCount: "0/0"}
	e := New(fe)
	require.NoError(t, e.Attach(fakeRouter{}, 0, "e0", "l:1"))
	_, _, err := e.ResolvePorts(0, 0)
	require.NoError(t, err)

	errh := &CollectingErrorHandler{}
	require.NoError(t, e.Configure(config.Args{"first", "TIMEOUT 30"}, errh))

	require.NoError(t, e.AddPositionalReadHandler("arg0", 0))
	require.NoError(t, e.AddKeywordReadHandler("timeout", "TIMEOUT"))

	v, err := e.ReadHandler("arg0")
	require.NoError(t, err)
	assert.Equal(t, "first\n", v)

	v, err = e.ReadHandler("timeout")
	require.NoError(t, err)
	assert.Equal(t, "30\n", v)
}

func TestElement_KeywordReconfigureHandlerRequiresConfigurationOverride(t *testing.T) {
	fe := &fakeElement{portCount: "0/0", liveReconfig: true}
	e := New(fe)
	require.NoError(t, e.Attach(fakeRouter{}, 0, "e0", "l:1"))
	_, _, err := e.ResolvePorts(0, 0)
	require.NoError(t, err)

	errh := &CollectingErrorHandler{}
	require.NoError(t, e.Configure(config.Args{"TIMEOUT 30"}, errh))
	require.NoError(t, e.AddKeywordReconfigureHandler("set_timeout", "TIMEOUT"))

	err = e.WriteHandler("set_timeout", "60", errh)
	assert.ErrorIs(t, err, clickerrors.ErrDefaultConfigurationOnly)

	e.SetConfigurationFunc(func(e *Element) config.Args { return config.Split(e.configString) })
	require.NoError(t, e.WriteHandler("set_timeout", "60", errh))
	assert.Equal(t, "/* dynamically reconfigured */", e.configString)
}

func TestElement_IsDefaultConfiguration(t *testing.T) {
	fe := &fakeElement{portCount: "0/0"}
	e := New(fe)
	assert.True(t, e.IsDefaultConfiguration())
	e.SetConfigurationFunc(func(e *Element) config.Args { return nil })
	assert.False(t, e.IsDefaultConfiguration())
}

type fakeTaskHandle struct {
	scheduled  bool
	tickets    int
	homeThread int
}

func (h *fakeTaskHandle) Scheduled() bool   { return h.scheduled }
func (h *fakeTaskHandle) Tickets() int      { return h.tickets }
func (h *fakeTaskHandle) SetTickets(n int)  { h.tickets = n }
func (h *fakeTaskHandle) HomeThread() int   { return h.homeThread }

func TestElement_AddTaskHandlers(t *testing.T) {
	fe := &fakeElement{portCount: "0/0"}
	e := New(fe)
	th := &fakeTaskHandle{scheduled: true, tickets: 3, homeThread: 0}
	e.AddTaskHandlers("task_", func(e *Element) TaskHandle { return th })

	scheduled, err := e.ReadHandler("task_scheduled")
	require.NoError(t, err)
	assert.Equal(t, "true\n", scheduled)

	tickets, err := e.ReadHandler("task_tickets")
	require.NoError(t, err)
	assert.Equal(t, "3\n", tickets)

	errh := &CollectingErrorHandler{}
	require.NoError(t, e.WriteHandler("task_tickets", "7", errh))
	assert.Equal(t, 7, th.tickets)

	home, err := e.ReadHandler("task_home_thread")
	require.NoError(t, err)
	assert.Equal(t, "0\n", home)
}
