package mdns

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	hmdns "github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/reachability"
	"github.com/dep2p/go-nearlink/pkg/types"
)

func entry(id, name string, port int) *hmdns.ServiceEntry {
	return &hmdns.ServiceEntry{
		Name:       name + "._nearlink._tcp.local.",
		Host:       "host-" + id + ".local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       port,
		InfoFields: []string{"id=" + id, "class=phone", "caps=clipboard_sync,bogus,file_transfer", "battery=42", "os=android"},
	}
}

// fakeQuery 每次查询返回固定应答
func fakeQuery(entries ...*hmdns.ServiceEntry) (QueryFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(_ context.Context, p *hmdns.QueryParam) error {
		calls.Add(1)
		for _, e := range entries {
			p.Entries <- e
		}
		return nil
	}, &calls
}

func recv(t *testing.T, ch <-chan types.RawSighting) types.RawSighting {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "channel closed")
		return raw
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sighting")
		return types.RawSighting{}
	}
}

// ============================================================================
//                              TXT
// ============================================================================

func TestDecodeEntry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	raw, ok := decodeEntry(entry("dev-1", "Kitchen\\ Tablet", 47100), now)
	require.True(t, ok)

	assert.Equal(t, "192.168.1.20:47100", raw.TransportLocalID)
	assert.Equal(t, "dev-1", raw.DeviceID)
	assert.Equal(t, "Kitchen Tablet", raw.Name, "falls back to the instance name")
	assert.Equal(t, types.DeviceClassPhone, raw.Class)
	assert.Equal(t, []types.Capability{types.CapabilityClipboardSync, types.CapabilityFileTransfer}, raw.Capabilities)
	require.NotNil(t, raw.BatteryHint)
	assert.Equal(t, 42, *raw.BatteryHint)
	assert.Nil(t, raw.SignalHint)
	assert.Equal(t, "android", raw.Attributes["os"])
	assert.Equal(t, "host-dev-1.local", raw.Attributes[AttrHost])
	assert.Equal(t, now, raw.Timestamp)
}

func TestDecodeEntry_Rejects(t *testing.T) {
	_, ok := decodeEntry(nil, time.Now())
	assert.False(t, ok)

	noAddr := entry("x", "x", 1)
	noAddr.AddrV4 = nil
	_, ok = decodeEntry(noAddr, time.Now())
	assert.False(t, ok)

	_, ok = decodeEntry(entry("x", "x", 0), time.Now())
	assert.False(t, ok)
}

func TestDecodeEntry_IPv6(t *testing.T) {
	e := entry("v6", "v6", 9000)
	e.AddrV4 = nil
	e.AddrV6 = net.ParseIP("fd00::1")
	raw, ok := decodeEntry(e, time.Now())
	require.True(t, ok)
	assert.Equal(t, "[fd00::1]:9000", raw.TransportLocalID)
}

func TestEncodeTXT(t *testing.T) {
	txt := EncodeTXT(Info{
		ID:           "me",
		Name:         "Desk",
		Class:        types.DeviceClassLaptop,
		Capabilities: []types.Capability{types.CapabilityClipboardSync, types.CapabilityRemoteControl},
		Battery:      types.IntPtr(80),
	})
	assert.Equal(t, []string{
		"id=me", "name=Desk", "class=laptop", "caps=clipboard_sync,remote_control", "battery=80",
	}, txt)

	fields := parseTXT(txt)
	assert.Equal(t, "Desk", fields["name"])
	assert.Equal(t, []string{"id=bare"}, EncodeTXT(Info{ID: "bare"}))
}

// ============================================================================
//                              Scanner
// ============================================================================

func TestScanner_ForwardsAndSkipsSelf(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Self.ID = "me"
	query, _ := fakeQuery(entry("me", "self", 1), entry("dev-1", "peer", 2))
	s := NewScanner(cfg, clock.NewMock(), query)
	assert.Equal(t, types.TransportLAN, s.Transport())

	ch, err := s.Start(context.Background())
	require.NoError(t, err)

	raw := recv(t, ch)
	assert.Equal(t, "dev-1", raw.DeviceID)

	require.NoError(t, s.Stop())
	for range ch {
	}
}

func TestScanner_PeriodicQuery(t *testing.T) {
	mock := clock.NewMock()
	query, calls := fakeQuery(entry("dev-1", "peer", 2))
	s := NewScanner(DefaultConfig(), mock, query)

	ch, err := s.Start(context.Background())
	require.NoError(t, err)
	recv(t, ch)
	assert.EqualValues(t, 1, calls.Load())

	require.Eventually(t, func() bool {
		mock.Add(DefaultQueryInterval)
		select {
		case <-ch:
		default:
		}
		return calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestScanner_RestartAndClose(t *testing.T) {
	query, _ := fakeQuery()
	s := NewScanner(DefaultConfig(), clock.NewMock(), query)

	ch, err := s.Start(context.Background())
	require.NoError(t, err)
	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, s.Stop())

	ch, err = s.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, open = <-ch
	assert.False(t, open)

	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestScanner_QueryErrorKeepsRunning(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32
	query := func(_ context.Context, p *hmdns.QueryParam) error {
		if calls.Add(1) == 1 {
			return errors.New("no multicast route")
		}
		p.Entries <- entry("dev-1", "peer", 2)
		return nil
	}
	s := NewScanner(DefaultConfig(), mock, query)
	ch, err := s.Start(context.Background())
	require.NoError(t, err)
	defer s.Stop()

	var got types.RawSighting
	require.Eventually(t, func() bool {
		mock.Add(DefaultQueryInterval)
		select {
		case got = <-ch:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "dev-1", got.DeviceID)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{QueryInterval: time.Second, QueryTimeout: 5 * time.Second}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultServiceTag, cfg.ServiceTag)
	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, time.Second, cfg.QueryTimeout)
	assert.Equal(t, DefaultAdvertisePort, cfg.AdvertisePort)
}

// ============================================================================
//                              Advertiser
// ============================================================================

func lanOnly() ([]reachability.Interface, error) {
	return []reachability.Interface{{
		Name:  "wlan0",
		Up:    true,
		Addrs: []net.IP{net.ParseIP("192.168.1.10")},
	}}, nil
}

func TestAdvertiser_Service(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Self = Info{ID: "me", Name: "Desk", Class: types.DeviceClassDesktop}
	a := NewAdvertiser(cfg, lanOnly)

	svc, err := a.Service()
	require.NoError(t, err)
	assert.Equal(t, "Desk", svc.Instance)
	assert.Equal(t, DefaultAdvertisePort, svc.Port)
	assert.Contains(t, svc.TXT, "id=me")
	require.Len(t, svc.IPs, 1)
	assert.Equal(t, "192.168.1.10", svc.IPs[0].String())
}

func TestAdvertiser_Errors(t *testing.T) {
	_, err := NewAdvertiser(DefaultConfig(), lanOnly).Service()
	assert.ErrorIs(t, err, ErrMissingID)

	cfg := DefaultConfig()
	cfg.Self.ID = "me"
	none := func() ([]reachability.Interface, error) { return nil, nil }
	_, err = NewAdvertiser(cfg, none).Service()
	assert.ErrorIs(t, err, ErrNoAddresses)

	assert.NoError(t, NewAdvertiser(cfg, none).Stop())
}

// ============================================================================
//                              Fx 模块
// ============================================================================

func TestModule_Load(t *testing.T) {
	query, _ := fakeQuery(entry("dev-1", "peer", 2))
	var s *Scanner

	app := fxtest.New(t,
		fx.Provide(func() *config.Config { return config.NewConfig() }),
		fx.Provide(func() clock.Clock { return clock.NewMock() }),
		fx.Provide(func() QueryFunc { return query }),
		Module,
		fx.Populate(&s),
	)
	app.RequireStart()

	ch, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev-1", recv(t, ch).DeviceID)

	app.RequireStop()
	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}
