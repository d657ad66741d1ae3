package testutil

import (
	"testing"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockElement_DefaultPushBridgeRunsSimpleAction(t *testing.T) {
	m := &MockElement{}
	e := element.New(m)
	require.NoError(t, e.Attach(NoopRouter{}, 0, "m", "test:1"))
	_, _, err := e.ResolvePorts(1, 1)
	require.NoError(t, err)

	errh := &element.CollectingErrorHandler{}
	require.NoError(t, e.Configure(config.Args{}, errh))
	require.NoError(t, e.Initialize(errh))

	sink := &CapturePort{}
	e.Output(0).Connect(sink, 0)

	e.PushTo(0, "pkt")

	configure, initialize, simpleAction, push, _ := m.Calls()
	assert.Equal(t, 1, configure)
	assert.Equal(t, 1, initialize)
	assert.Equal(t, 1, simpleAction)
	assert.Equal(t, 1, push)
	assert.Equal(t, []any{"pkt"}, sink.Snapshot())
}

func TestMockElement_ConfigureFuncOverridesDefault(t *testing.T) {
	m := &MockElement{
		ConfigureFunc: func(args config.Args, errh element.ErrorHandler) error {
			return nil
		},
	}
	e := element.New(m)
	require.NoError(t, e.Attach(NoopRouter{}, 0, "m", "test:1"))
	_, _, err := e.ResolvePorts(1, 1)
	require.NoError(t, err)

	errh := &element.CollectingErrorHandler{}
	require.NoError(t, e.Configure(config.Args{"anything"}, errh))
	assert.Equal(t, config.Args{"anything"}, m.LastConfigureArgs)
}

func TestMockElement_CleanupRecordsStage(t *testing.T) {
	m := &MockElement{}
	e := element.New(m)
	require.NoError(t, e.Attach(NoopRouter{}, 0, "m", "test:1"))
	_, _, err := e.ResolvePorts(1, 1)
	require.NoError(t, err)

	e.Cleanup(element.CleanupNoRouter)
	require.Len(t, m.CleanupCalls, 1)
	assert.Equal(t, element.CleanupNoRouter, m.CleanupCalls[0])
}

func TestMockElement_SimpleActionFuncOverridesIdentity(t *testing.T) {
	m := &MockElement{
		SimpleActionFunc: func(pkt any) any { return pkt.(string) + "!" },
	}
	e := element.New(m)
	require.NoError(t, e.Attach(NoopRouter{}, 0, "m", "test:1"))
	_, _, err := e.ResolvePorts(1, 1)
	require.NoError(t, err)

	errh := &element.CollectingErrorHandler{}
	require.NoError(t, e.Configure(config.Args{}, errh))
	require.NoError(t, e.Initialize(errh))

	sink := &CapturePort{}
	e.Output(0).Connect(sink, 0)
	e.PushTo(0, "pkt")

	assert.Equal(t, []any{"pkt!"}, sink.Snapshot())
}
