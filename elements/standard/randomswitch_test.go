package standard

import (
	"testing"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct{}

func (fakeRouter) ElementByIndex(int) *element.Element { return nil }
func (fakeRouter) NElements() int                      { return 0 }

func buildSwitch(t *testing.T, nOutputs int, weights config.Args) (*RandomSwitch, *element.Element) {
	t.Helper()
	rs := &RandomSwitch{}
	e := element.New(rs)
	require.NoError(t, e.Attach(fakeRouter{}, 0, "sw", "test:1"))
	_, _, err := e.ResolvePorts(1, nOutputs)
	require.NoError(t, err)

	errh := &element.CollectingErrorHandler{}
	require.NoError(t, e.Configure(weights, errh))
	require.NoError(t, e.Initialize(errh))
	return rs, e
}

func TestRandomSwitch_DefaultsToUniformWeights(t *testing.T) {
	rs, _ := buildSwitch(t, 3, config.Args{})
	assert.Equal(t, []int{1, 1, 1}, rs.Weights())
}

func TestRandomSwitch_ConfiguresWeightsFromArgs(t *testing.T) {
	rs, _ := buildSwitch(t, 3, config.Args{"5", "0", "1"})
	assert.Equal(t, []int{5, 0, 1}, rs.Weights())
}

func TestRandomSwitch_NeverChoosesZeroWeightOutput(t *testing.T) {
	_, e := buildSwitch(t, 2, config.Args{"1", "0"})

	var received []any
	target := &captureEndpoint{onPush: func(pkt any) { received = append(received, pkt) }}
	e.Output(0).Connect(target, 0)
	// output 1 deliberately left unconnected: weight 0 means it must never be chosen

	for i := 0; i < 50; i++ {
		e.PushTo(0, i)
	}
	assert.Len(t, received, 50)
}

func TestRandomSwitch_LiveReconfigureUpdatesWeights(t *testing.T) {
	rs, e := buildSwitch(t, 2, config.Args{"1", "1"})
	errh := &element.CollectingErrorHandler{}
	require.NoError(t, e.LiveReconfigure(config.Args{"0", "9"}, errh))
	assert.Equal(t, []int{0, 9}, rs.Weights())
}

type captureEndpoint struct {
	onPush func(pkt any)
}

func (c *captureEndpoint) PushTo(portIndex int, pkt any) { c.onPush(pkt) }
func (c *captureEndpoint) PullFrom(portIndex int) any    { return nil }
