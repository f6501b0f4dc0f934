package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/internal/core/reachability"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// fakeScanner 由测试手动推送发现的扫描器
type fakeScanner struct {
	transport types.Transport
	startErr  error

	mu     sync.Mutex
	ch     chan types.RawSighting
	starts int
	stops  int
}

func newFakeScanner(t types.Transport) *fakeScanner {
	return &fakeScanner{transport: t}
}

func (s *fakeScanner) Transport() types.Transport { return s.transport }

func (s *fakeScanner) Start(_ context.Context) (<-chan types.RawSighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.starts++
	s.ch = make(chan types.RawSighting, 16)
	return s.ch, nil
}

func (s *fakeScanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
		s.stops++
	}
	return nil
}

func (s *fakeScanner) push(raw types.RawSighting) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return false
	}
	s.ch <- raw
	return true
}

func (s *fakeScanner) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch != nil
}

func (s *fakeScanner) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

type radioSwitch struct {
	mu sync.Mutex
	on bool
}

func (r *radioSwitch) IsRadioEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

func (r *radioSwitch) set(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = on
}

func sighting(id, local string, signal *int) types.RawSighting {
	return types.RawSighting{
		TransportLocalID: local,
		DeviceID:         id,
		Name:             "device-" + id,
		SignalHint:       signal,
	}
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RadioSecondaryDelay = 0
	cfg.LANSecondaryDelay = 0
	return cfg
}

func recvDevice(t *testing.T, ch <-chan types.UnifiedDevice) types.UnifiedDevice {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "stream closed")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device")
		return types.UnifiedDevice{}
	}
}

// ============================================================================
//                              策略
// ============================================================================

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		want types.DiscoveryStrategy
	}{
		{"both disabled", Environment{NetworkAvailable: true, RadioAvailable: true}, types.StrategyNone},
		{"both available lan primary",
			Environment{LANEnabled: true, RadioEnabled: true, NetworkAvailable: true, RadioAvailable: true, Primary: types.TransportLAN},
			types.StrategyLANPrimaryRadioSecondary},
		{"both available radio primary",
			Environment{LANEnabled: true, RadioEnabled: true, NetworkAvailable: true, RadioAvailable: true, Primary: types.TransportRadio},
			types.StrategyRadioPrimaryLANSecondary},
		{"network down", Environment{LANEnabled: true, RadioEnabled: true, RadioAvailable: true}, types.StrategyRadioOnly},
		{"radio off", Environment{LANEnabled: true, RadioEnabled: true, NetworkAvailable: true}, types.StrategyLANOnly},
		{"lan only enabled", Environment{LANEnabled: true, NetworkAvailable: true, RadioAvailable: true}, types.StrategyLANOnly},
		{"radio only enabled", Environment{RadioEnabled: true, NetworkAvailable: true, RadioAvailable: true}, types.StrategyRadioOnly},
		{"nothing available", Environment{LANEnabled: true, RadioEnabled: true}, types.StrategyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.env))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{MaxDevices: -1, SignalHysteresis: -3, StreamBuffer: 0, Primary: types.TransportUnknown}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.MaxDevices)
	assert.Equal(t, 0, cfg.SignalHysteresis)
	assert.Equal(t, 64, cfg.StreamBuffer)
	assert.Equal(t, types.TransportLAN, cfg.Primary)
	assert.Equal(t, -50, cfg.DefaultSignal)
}

func TestConfigFromUnified(t *testing.T) {
	u := config.NewConfig()
	u.Discovery.Primary = "radio"
	u.Discovery.BLEEnabled = false
	u.Discovery.MaxDevices = 7

	cfg := ConfigFromUnified(u)
	assert.Equal(t, types.TransportRadio, cfg.Primary)
	assert.False(t, cfg.RadioEnabled)
	assert.True(t, cfg.LANEnabled)
	assert.Equal(t, 7, cfg.MaxDevices)
	assert.Equal(t, 5*time.Second, cfg.RadioSecondaryDelay)
}

// ============================================================================
//                              合并
// ============================================================================

func TestMerge_Idempotent(t *testing.T) {
	mock := clock.NewMock()
	c := NewCoordinator(testConfig(), mock)
	defer c.Stop()

	raw := sighting("dev-1", "AA:BB", types.IntPtr(-60))
	first, ok := c.Ingest(types.TransportRadio, raw)
	require.True(t, ok)
	second, ok := c.Ingest(types.TransportRadio, raw)
	require.True(t, ok)
	third, ok := c.Ingest(types.TransportRadio, raw)
	require.True(t, ok)

	assert.Equal(t, first.Transports, second.Transports)
	assert.Equal(t, first.Endpoints, second.Endpoints)
	assert.Equal(t, first.LastSeen, second.LastSeen)
	assert.Equal(t, second.QualityScore, third.QualityScore)
	assert.Equal(t, second.Attributes, third.Attributes)
	assert.Len(t, c.Devices(), 1)
}

// 先在无线上发现，再在局域网发现同一设备
func TestMerge_TransportUnion(t *testing.T) {
	mock := clock.NewMock()
	c := NewCoordinator(testConfig(), mock)
	defer c.Stop()

	radio := sighting("dev-1", "AA:BB:CC", types.IntPtr(-55))
	radio.Timestamp = mock.Now().Add(2 * time.Second)
	d, ok := c.Ingest(types.TransportRadio, radio)
	require.True(t, ok)
	assert.Equal(t, types.NewTransportSet(types.TransportRadio), d.Transports)
	assert.InDelta(t, quality.BaseQuality(types.TransportRadio, -55), d.QualityScore, 1e-9)

	lan := sighting("dev-1", "192.168.1.20:47100", nil)
	lan.Timestamp = mock.Now()
	lan.Attributes = map[string]string{"os": "linux"}
	d, ok = c.Ingest(types.TransportLAN, lan)
	require.True(t, ok)

	assert.True(t, d.Transports.Has(types.TransportLAN))
	assert.True(t, d.Transports.Has(types.TransportRadio))
	assert.Equal(t, "AA:BB:CC", d.Endpoint(types.TransportRadio))
	assert.Equal(t, "192.168.1.20:47100", d.Endpoint(types.TransportLAN))
	assert.Equal(t, radio.Timestamp, d.LastSeen, "LastSeen keeps the later timestamp")

	os, ok := d.Attributes["os"]
	require.True(t, ok)
	assert.Equal(t, types.TransportLAN, os.Transport)
	assert.Equal(t, "linux", os.Value)
	v, _ := d.Attr(types.AttrLastSeenTransport)
	assert.Equal(t, "lan", v)
	v, _ = d.Attr(types.AttrDiscoveredTransport)
	assert.Equal(t, "radio", v)

	assert.GreaterOrEqual(t, d.QualityScore, 0.0)
	assert.LessOrEqual(t, d.QualityScore, 1.0)
	require.Len(t, c.Devices(), 1)
}

func TestMerge_LANBaseQuality(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	d, ok := c.Ingest(types.TransportLAN, sighting("dev-1", "10.0.0.2:1", nil))
	require.True(t, ok)
	assert.InDelta(t, quality.LANBaseQuality, d.QualityScore, 1e-9)
}

func TestMerge_FallbackKeyAndName(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	d, ok := c.Ingest(types.TransportRadio, types.RawSighting{TransportLocalID: "AA:BB"})
	require.True(t, ok)
	assert.Equal(t, "AA:BB", d.ID)
	assert.Equal(t, "AA:BB", d.DisplayName)

	d, ok = c.Ingest(types.TransportRadio, types.RawSighting{TransportLocalID: "AA:BB", Name: "Pixel"})
	require.True(t, ok)
	assert.Equal(t, "Pixel", d.DisplayName)
}

func TestMerge_InvalidSightingReported(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	var got []error
	c.OnError(func(err error) { got = append(got, err) })
	c.OnError(func(error) { panic("handler boom") })

	_, ok := c.Ingest(types.TransportLAN, types.RawSighting{Name: "anon"})
	assert.False(t, ok)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], ErrInvalidSighting)
	assert.Empty(t, c.Devices())
}

func TestMerge_CapacityEvictsOnlyStale(t *testing.T) {
	mock := clock.NewMock()
	cfg := testConfig()
	cfg.MaxDevices = 2
	cfg.DiscoveryTimeout = 30 * time.Second
	c := NewCoordinator(cfg, mock)
	defer c.Stop()

	_, ok := c.Ingest(types.TransportLAN, sighting("a", "h:1", nil))
	require.True(t, ok)
	mock.Add(time.Second)
	_, ok = c.Ingest(types.TransportLAN, sighting("b", "h:2", nil))
	require.True(t, ok)

	_, ok = c.Ingest(types.TransportLAN, sighting("c", "h:3", nil))
	assert.False(t, ok, "fresh records are not evicted")
	assert.Len(t, c.Devices(), 2)

	// 已知设备在满容量时仍可更新
	_, ok = c.Ingest(types.TransportRadio, sighting("a", "AA", nil))
	assert.True(t, ok)

	mock.Add(31 * time.Second)
	_, ok = c.Ingest(types.TransportLAN, sighting("c", "h:3", nil))
	require.True(t, ok)

	_, hasA := c.Device("a")
	_, hasB := c.Device("b")
	_, hasC := c.Device("c")
	assert.True(t, hasA)
	assert.False(t, hasB, "least recently seen record is evicted")
	assert.True(t, hasC)
}

func TestMerge_SignalHysteresis(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	rssi := func(d types.UnifiedDevice) string {
		v, _ := d.Attr(types.AttrRSSI)
		return v
	}

	d, _ := c.Ingest(types.TransportRadio, sighting("dev", "AA", types.IntPtr(-60)))
	assert.Equal(t, "-60", rssi(d))

	d, _ = c.Ingest(types.TransportRadio, sighting("dev", "AA", types.IntPtr(-62)))
	assert.Equal(t, "-60", rssi(d), "small change is ignored")

	d, _ = c.Ingest(types.TransportRadio, sighting("dev", "AA", types.IntPtr(-70)))
	assert.Equal(t, "-70", rssi(d))

	cfg := testConfig()
	cfg.SignalHysteresis = 0
	raw := NewCoordinator(cfg, clock.NewMock())
	defer raw.Stop()
	raw.Ingest(types.TransportRadio, sighting("dev", "AA", types.IntPtr(-60)))
	d, _ = raw.Ingest(types.TransportRadio, sighting("dev", "AA", types.IntPtr(-61)))
	assert.Equal(t, "-61", rssi(d))
}

func TestMerge_BatteryAndCapabilities(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	raw := sighting("dev", "h:1", nil)
	raw.Capabilities = []types.Capability{types.CapabilityClipboardSync}
	raw.Class = types.DeviceClassPhone
	c.Ingest(types.TransportLAN, raw)

	raw = sighting("dev", "AA", nil)
	raw.Capabilities = []types.Capability{types.CapabilityFileTransfer}
	raw.BatteryHint = types.IntPtr(15)
	d, ok := c.Ingest(types.TransportRadio, raw)
	require.True(t, ok)

	assert.True(t, d.Capabilities.Has(types.CapabilityClipboardSync))
	assert.True(t, d.Capabilities.Has(types.CapabilityFileTransfer))
	assert.Equal(t, types.DeviceClassPhone, d.Class)
	v, ok := d.Attr(types.AttrBatteryLevel)
	require.True(t, ok)
	assert.Equal(t, "15", v)
}

func TestDevices_SnapshotsAndClear(t *testing.T) {
	c := NewCoordinator(testConfig(), clock.NewMock())
	defer c.Stop()

	c.Ingest(types.TransportRadio, sighting("weak", "AA", types.IntPtr(-95)))
	c.Ingest(types.TransportLAN, sighting("strong", "h:1", nil))

	list := c.Devices()
	require.Len(t, list, 2)
	assert.Equal(t, "strong", list[0].ID)

	list[0].Endpoints[types.TransportLAN] = "mutated"
	d, ok := c.Device("strong")
	require.True(t, ok)
	assert.Equal(t, "h:1", d.Endpoint(types.TransportLAN))

	c.ClearDevices()
	assert.Empty(t, c.Devices())
}

// ============================================================================
//                              设备流与扫描器
// ============================================================================

func TestStartDiscovery_LazyAndRestartable(t *testing.T) {
	lan := newFakeScanner(types.TransportLAN)
	radio := newFakeScanner(types.TransportRadio)
	c := NewCoordinator(testConfig(), clock.NewMock(), lan, radio)
	defer c.Stop()
	require.NoError(t, c.Start(context.Background()))

	assert.False(t, lan.running(), "no scanning without subscribers")

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.StartDiscovery(ctx)
	require.NoError(t, err)
	assert.True(t, c.Running())
	assert.True(t, lan.running())
	assert.True(t, radio.running())

	require.True(t, lan.push(sighting("dev-1", "h:1", nil)))
	d := recvDevice(t, stream)
	assert.Equal(t, "dev-1", d.ID)

	require.True(t, radio.push(sighting("dev-1", "AA", types.IntPtr(-50))))
	d = recvDevice(t, stream)
	assert.Equal(t, 2, d.Transports.Len())

	cancel()
	require.Eventually(t, func() bool {
		return !lan.running() && !radio.running() && !c.Running()
	}, 2*time.Second, 10*time.Millisecond)
	for range stream {
	}

	stream2, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, lan.startCount())
	require.True(t, lan.push(sighting("dev-2", "h:2", nil)))
	assert.Equal(t, "dev-2", recvDevice(t, stream2).ID)
}

func TestStartDiscovery_SecondaryAfterGrace(t *testing.T) {
	mock := clock.NewMock()
	lan := newFakeScanner(types.TransportLAN)
	radio := newFakeScanner(types.TransportRadio)
	cfg := DefaultConfig()
	c := NewCoordinator(cfg, mock, lan, radio)
	defer c.Stop()
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, types.StrategyLANPrimaryRadioSecondary, c.Strategy())

	_, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)
	assert.True(t, lan.running())
	assert.False(t, radio.running())

	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		return radio.running()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartDiscovery_SecondarySkippedWhenStrategyChanges(t *testing.T) {
	mock := clock.NewMock()
	lan := newFakeScanner(types.TransportLAN)
	radio := newFakeScanner(types.TransportRadio)
	c := NewCoordinator(DefaultConfig(), mock, lan, radio)
	defer c.Stop()
	require.NoError(t, c.Start(context.Background()))

	_, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)
	require.True(t, lan.running())

	c.SetEnabled(true, false)
	assert.Equal(t, types.StrategyLANOnly, c.Strategy())

	mock.Add(10 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, radio.running())
	assert.Equal(t, 0, radio.startCount())
	assert.True(t, lan.running())
}

func TestStrategy_FollowsEnvironment(t *testing.T) {
	lan := newFakeScanner(types.TransportLAN)
	radio := newFakeScanner(types.TransportRadio)
	reach := reachability.NewStatic(true)
	sw := &radioSwitch{on: true}

	c := NewCoordinator(testConfig(), clock.NewMock(), lan, radio)
	c.SetReachability(reach)
	c.SetRadioOracle(sw)
	defer c.Stop()
	require.NoError(t, c.Start(context.Background()))

	_, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)
	require.True(t, lan.running())
	require.True(t, radio.running())

	reach.Set(false)
	assert.Equal(t, types.StrategyRadioOnly, c.Strategy())
	assert.False(t, lan.running())
	assert.True(t, radio.running())

	sw.set(false)
	c.RefreshEnvironment()
	assert.Equal(t, types.StrategyNone, c.Strategy())
	assert.False(t, radio.running())

	reach.Set(true)
	assert.Equal(t, types.StrategyLANOnly, c.Strategy())
	assert.True(t, lan.running())

	c.SetEnabled(false, false)
	assert.Equal(t, types.StrategyNone, c.Strategy())
	assert.False(t, lan.running())
}

func TestStrategy_SmartSwitchingDisabled(t *testing.T) {
	reach := reachability.NewStatic(true)
	cfg := testConfig()
	cfg.EnableSmartSwitching = false
	c := NewCoordinator(cfg, clock.NewMock())
	c.SetReachability(reach)
	defer c.Stop()
	require.NoError(t, c.Start(context.Background()))

	reach.Set(false)
	assert.Equal(t, types.StrategyLANPrimaryRadioSecondary, c.Strategy())

	c.RefreshEnvironment()
	assert.Equal(t, types.StrategyRadioOnly, c.Strategy())
}

func TestScannerStartErrorIsolated(t *testing.T) {
	lan := newFakeScanner(types.TransportLAN)
	radio := newFakeScanner(types.TransportRadio)
	radio.startErr = errors.New("adapter missing")

	c := NewCoordinator(testConfig(), clock.NewMock(), lan, radio)
	defer c.Stop()

	errs := make(chan error, 4)
	c.OnError(func(err error) { errs <- err })

	stream, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrScannerStart)
	case <-time.After(time.Second):
		t.Fatal("expected scanner error")
	}

	require.True(t, lan.push(sighting("dev", "h:1", nil)))
	assert.Equal(t, "dev", recvDevice(t, stream).ID)
}

func TestStop(t *testing.T) {
	lan := newFakeScanner(types.TransportLAN)
	c := NewCoordinator(testConfig(), clock.NewMock(), lan)
	require.NoError(t, c.Start(context.Background()))

	stream, err := c.StartDiscovery(context.Background())
	require.NoError(t, err)
	require.True(t, lan.running())

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	assert.False(t, lan.running())

	_, open := <-stream
	assert.False(t, open)

	_, err = c.StartDiscovery(context.Background())
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.ErrorIs(t, c.Start(context.Background()), types.ErrClosed)
}

// ============================================================================
//                              Fx 模块
// ============================================================================

func TestModule_Load(t *testing.T) {
	lan := newFakeScanner(types.TransportLAN)
	var coord *Coordinator

	app := fxtest.New(t,
		fx.Provide(func() *config.Config { return config.NewConfig() }),
		fx.Provide(fx.Annotate(
			func() interfaces.TransportScanner { return lan },
			fx.ResultTags(`group:"scanners"`),
		)),
		Module,
		fx.Populate(&coord),
	)
	app.RequireStart()
	require.NotNil(t, coord)
	assert.Equal(t, types.StrategyLANPrimaryRadioSecondary, coord.Strategy())

	stream, err := coord.StartDiscovery(context.Background())
	require.NoError(t, err)
	require.True(t, lan.push(sighting("dev", "h:1", nil)))
	assert.Equal(t, "dev", recvDevice(t, stream).ID)

	app.RequireStop()
	assert.False(t, lan.running())
}
