package signctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipdot/signctl/bus"
	"github.com/flipdot/signctl/proto"
)

func TestConfigureFreshSign(t *testing.T) {
	b := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	s := New(b, 3, proto.Max3000Side90x7)

	require.NoError(t, s.Configure())
	assert.EqualValues(t, 90, s.Width())
	assert.EqualValues(t, 7, s.Height())
}

func TestConfigureResetsAlreadyConfiguredSign(t *testing.T) {
	vs := bus.NewVirtualSign(3)
	b := bus.NewVirtualSignBus(vs)
	s := New(b, 3, proto.Max3000Side90x7)

	require.NoError(t, s.Configure())
	require.NoError(t, s.Configure())
	assert.Equal(t, proto.ConfigReceived, vs.State())
}

func TestSendPagesManualFlip(t *testing.T) {
	b := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	s := New(b, 3, proto.Max3000Side90x7)
	require.NoError(t, s.Configure())

	p := s.CreatePage(0)
	style, err := s.SendPages(p)
	require.NoError(t, err)
	assert.Equal(t, proto.PageFlipManual, style)

	require.NoError(t, s.ShowLoadedPage())
}

func TestSendPagesMultiple(t *testing.T) {
	b := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	s := New(b, 3, proto.Max3000Side90x7)
	require.NoError(t, s.Configure())

	p1 := s.CreatePage(0)
	p2 := s.CreatePage(1)
	style, err := s.SendPages(p1, p2)
	require.NoError(t, err)
	assert.Equal(t, proto.PageFlipManual, style)

	require.NoError(t, s.ShowLoadedPage())
	require.NoError(t, s.LoadNextPage())
}

func TestShutDown(t *testing.T) {
	b := bus.NewVirtualSignBus(bus.NewVirtualSign(3))
	s := New(b, 3, proto.Max3000Side90x7)
	require.NoError(t, s.Configure())
	require.NoError(t, s.ShutDown())
}

// TestConfigureRetriesOnFailure drives the controller through a scripted
// ConfigFailed response on the first attempt, followed by success, within
// the controller's 3-attempt retry allowance for corrupted data.
func TestConfigureRetriesOnFailure(t *testing.T) {
	sb := &bus.ScriptedBus{Responses: []bus.ScriptedResponse{
		{Message: proto.ReportState{Address: 3, State: proto.Unconfigured}, Ok: true},
		{Message: proto.AckOperation{Address: 3, Operation: proto.ReceiveConfig}, Ok: true},
		{Ok: false}, // SendData
		{Ok: false}, // DataChunksSent
		{Message: proto.ReportState{Address: 3, State: proto.ConfigFailed}, Ok: true},
		{Message: proto.AckOperation{Address: 3, Operation: proto.ReceiveConfig}, Ok: true},
		{Ok: false}, // SendData
		{Ok: false}, // DataChunksSent
		{Message: proto.ReportState{Address: 3, State: proto.ConfigReceived}, Ok: true},
	}}

	s := New(sb, 3, proto.Max3000Side90x7)
	require.NoError(t, s.Configure())
}

// TestConfigureGivesUpAfterAttempts fails every attempt, exhausting the
// retry budget, and expects Configure to surface the failure.
func TestConfigureGivesUpAfterAttempts(t *testing.T) {
	attemptResponses := []bus.ScriptedResponse{
		{Message: proto.AckOperation{Address: 3, Operation: proto.ReceiveConfig}, Ok: true},
		{Ok: false}, // SendData
		{Ok: false}, // DataChunksSent
		{Message: proto.ReportState{Address: 3, State: proto.ConfigFailed}, Ok: true},
	}
	responses := []bus.ScriptedResponse{
		{Message: proto.ReportState{Address: 3, State: proto.Unconfigured}, Ok: true},
	}
	for i := 0; i < dataSendAttempts; i++ {
		responses = append(responses, attemptResponses...)
	}
	sb := &bus.ScriptedBus{Responses: responses}

	s := New(sb, 3, proto.Max3000Side90x7)
	err := s.Configure()
	require.Error(t, err)
	var unexpected *UnexpectedResponse
	assert.ErrorAs(t, err, &unexpected)
}

// TestEnsureUnconfiguredResetsFromArbitraryState drives the full
// StartReset/Hello/FinishReset/Hello sequence when the sign reports neither
// Unconfigured nor ReadyToReset on the initial Hello.
func TestEnsureUnconfiguredResetsFromArbitraryState(t *testing.T) {
	sb := &bus.ScriptedBus{Responses: []bus.ScriptedResponse{
		{Message: proto.ReportState{Address: 3, State: proto.PageShown}, Ok: true},
		{Message: proto.AckOperation{Address: 3, Operation: proto.StartReset}, Ok: true},
		{Message: proto.ReportState{Address: 3, State: proto.ReadyToReset}, Ok: true},
		{Message: proto.AckOperation{Address: 3, Operation: proto.FinishReset}, Ok: true},
		{Message: proto.ReportState{Address: 3, State: proto.Unconfigured}, Ok: true},
		{Message: proto.AckOperation{Address: 3, Operation: proto.ReceiveConfig}, Ok: true},
		{Ok: false},
		{Ok: false},
		{Message: proto.ReportState{Address: 3, State: proto.ConfigReceived}, Ok: true},
	}}

	s := New(sb, 3, proto.Max3000Side90x7)
	require.NoError(t, s.Configure())
	assert.Len(t, sb.Received, 9)
}

func TestBusErrorWrapped(t *testing.T) {
	sb := &bus.ScriptedBus{Responses: []bus.ScriptedResponse{
		{Err: assert.AnError},
	}}
	s := New(sb, 3, proto.Max3000Side90x7)
	err := s.Configure()
	require.Error(t, err)
	var busErr *BusError
	assert.ErrorAs(t, err, &busErr)
}
