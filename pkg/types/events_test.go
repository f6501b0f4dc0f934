package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionEvent_Constructors(t *testing.T) {
	at := time.Unix(1, 0)

	ev := NewSwitchedEvent("dev-1", TransportLAN, TransportRadio, SwitchReasonNetworkLost, at)
	assert.Equal(t, EventTransportSwitched, ev.Type)
	assert.Equal(t, TransportLAN, ev.From)
	assert.Equal(t, TransportRadio, ev.Transport)
	assert.Equal(t, at, ev.Time)
	assert.Contains(t, ev.String(), "network_lost")

	ev = NewFailedEvent("dev-1", ErrAllTransportsFailed, at)
	assert.Equal(t, EventFailed, ev.Type)
	assert.ErrorIs(t, ev.Err, ErrAllTransportsFailed)
	assert.NotEmpty(t, ev.Reason)

	assert.Equal(t, "connected", NewConnectedEvent("d", TransportLAN, at).Type.String())
	assert.Equal(t, "disconnected", NewDisconnectedEvent("d", TransportLAN, at).Type.String())
}
