package lan

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/yamux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

func lanDevice(addr string) types.UnifiedDevice {
	return types.UnifiedDevice{
		ID:         "dev-1",
		Transports: types.NewTransportSet(types.TransportLAN),
		Endpoints:  map[types.Transport]string{types.TransportLAN: addr},
	}
}

func startServer(t *testing.T) (string, chan *yamux.Session) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sessions := make(chan *yamux.Session, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Serve(ctx, ln, nil, func(s *yamux.Session) { sessions <- s })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String(), sessions
}

func TestDialer_OpenAndPing(t *testing.T) {
	addr, sessions := startServer(t)
	d := NewDialer(nil, nil)
	assert.Equal(t, types.TransportLAN, d.Transport())

	h, err := d.Open(context.Background(), lanDevice(addr))
	require.NoError(t, err)
	defer h.Close()

	select {
	case s := <-sessions:
		defer s.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("server did not accept session")
	}

	sample, err := NewProber(3).Probe(context.Background(), types.Connection{}, h)
	require.NoError(t, err)
	assert.Zero(t, sample.PacketLoss)
	assert.Equal(t, quality.LANEstimate().Throughput, sample.Throughput)
	assert.GreaterOrEqual(t, sample.Stability, 0.0)
	assert.LessOrEqual(t, sample.Stability, 1.0)
}

func TestDialer_NoEndpoint(t *testing.T) {
	d := NewDialer(nil, nil)
	_, err := d.Open(context.Background(), types.UnifiedDevice{ID: "x"})
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestDialer_DialError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDialer(nil, func(context.Context, string, string) (net.Conn, error) { return nil, boom })
	_, err := d.Open(context.Background(), lanDevice("10.0.0.1:1"))
	assert.ErrorIs(t, err, boom)
}

type fakePinger struct {
	rtts []time.Duration
	errs []error
	i    int
}

func (p *fakePinger) Ping() (time.Duration, error) {
	i := p.i
	p.i++
	return p.rtts[i], p.errs[i]
}

func (p *fakePinger) Close() error { return nil }

func TestProber_LossAndJitter(t *testing.T) {
	p := &fakePinger{
		rtts: []time.Duration{10 * time.Millisecond, 0, 30 * time.Millisecond, 20 * time.Millisecond},
		errs: []error{nil, errors.New("timeout"), nil, nil},
	}
	sample, err := NewProber(4).Probe(context.Background(), types.Connection{}, p)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, sample.LatencyMs, 1e-9)
	assert.InDelta(t, 0.25, sample.PacketLoss, 1e-9)
	assert.InDelta(t, quality.LANEstimate().Throughput*0.75, sample.Throughput, 1e-9)
	assert.Less(t, sample.Stability, 1.0)
	assert.Greater(t, sample.Stability, 0.0)
}

func TestProber_Errors(t *testing.T) {
	_, err := NewProber(1).Probe(context.Background(), types.Connection{}, nopCloser{})
	assert.ErrorIs(t, err, ErrNotSession)

	p := &fakePinger{rtts: []time.Duration{0, 0}, errs: []error{errors.New("a"), errors.New("b")}}
	_, err = NewProber(2).Probe(context.Background(), types.Connection{}, p)
	assert.ErrorIs(t, err, ErrAllPingsFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewProber(1).Probe(ctx, types.Connection{}, &fakePinger{})
	assert.ErrorIs(t, err, context.Canceled)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestConfig(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultConfig(), c)

	cfg := config.NewConfig()
	lc := ConfigFromUnified(cfg)
	assert.Equal(t, cfg.Quality.ProbeCount, lc.ProbeCount)
	assert.Equal(t, cfg.Quality.PingInterval.Duration(), lc.KeepAliveInterval)
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))
}

func TestModule_Load(t *testing.T) {
	var in struct {
		fx.In
		Dialers []interfaces.Dialer   `group:"dialers"`
		Probers []quality.ProberEntry `group:"probers"`
	}
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module,
		fx.Populate(&in),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.Len(t, in.Dialers, 1)
	require.Len(t, in.Probers, 1)
	assert.Equal(t, types.TransportLAN, in.Dialers[0].Transport())
	assert.Equal(t, types.TransportLAN, in.Probers[0].Transport)
}
