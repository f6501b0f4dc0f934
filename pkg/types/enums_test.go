package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransport(t *testing.T) {
	assert.Equal(t, TransportLAN, ParseTransport("wifi"))
	assert.Equal(t, TransportRadio, ParseTransport(" BLE "))
	assert.Equal(t, TransportUnknown, ParseTransport("usb"))

	assert.Equal(t, TransportRadio, TransportLAN.Other())
	assert.Equal(t, TransportLAN, TransportRadio.Other())
	assert.Equal(t, TransportUnknown, TransportUnknown.Other())
}

// TestTransportSet 测试通道集合运算
func TestTransportSet(t *testing.T) {
	var s TransportSet
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "{}", s.String())

	s = s.With(TransportRadio).With(TransportUnknown)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Has(TransportUnknown))

	s = s.Union(NewTransportSet(TransportLAN))
	assert.Equal(t, []Transport{TransportLAN, TransportRadio}, s.Slice())
	assert.Equal(t, "{lan,radio}", s.String())
}

func TestDeviceClassAndCapability(t *testing.T) {
	for _, c := range []DeviceClass{DeviceClassPhone, DeviceClassTablet, DeviceClassDesktop,
		DeviceClassLaptop, DeviceClassWatch, DeviceClassTV} {
		assert.Equal(t, c, ParseDeviceClass(c.String()))
	}
	assert.Equal(t, DeviceClassUnknown, ParseDeviceClass("toaster"))

	assert.Equal(t, CapabilityFileTransfer, ParseCapability("FILE_TRANSFER"))
	assert.Equal(t, Capability(0), ParseCapability("teleport"))

	s := NewCapabilitySet(CapabilityRemoteControl, 0, CapabilityClipboardSync)
	assert.Len(t, s, 2)
	u := s.Union(NewCapabilitySet(CapabilityFileTransfer))
	assert.Len(t, s, 2, "union must not modify receiver")
	assert.Equal(t, []Capability{CapabilityClipboardSync, CapabilityFileTransfer, CapabilityRemoteControl}, u.Slice())
}

// TestDiscoveryStrategy 测试策略的主次通道
func TestDiscoveryStrategy(t *testing.T) {
	tests := []struct {
		s         DiscoveryStrategy
		primary   Transport
		secondary Transport
	}{
		{StrategyNone, TransportUnknown, TransportUnknown},
		{StrategyLANOnly, TransportLAN, TransportUnknown},
		{StrategyRadioOnly, TransportRadio, TransportUnknown},
		{StrategyLANPrimaryRadioSecondary, TransportLAN, TransportRadio},
		{StrategyRadioPrimaryLANSecondary, TransportRadio, TransportLAN},
	}
	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			assert.Equal(t, tt.primary, tt.s.Primary())
			assert.Equal(t, tt.secondary, tt.s.Secondary())
		})
	}
}

func TestConnectionState_IsLive(t *testing.T) {
	assert.False(t, StateDisconnected.IsLive())
	assert.True(t, StateConnecting.IsLive())
	assert.True(t, StateConnected.IsLive())
	assert.True(t, StateDisconnecting.IsLive())
	assert.False(t, StateFailed.IsLive())
}
