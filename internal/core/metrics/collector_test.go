package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// TestCollector_Records 测试指标记录
func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector("test", reg)
	require.NoError(t, err)

	c.SetDevices(3)
	c.Sighting(types.TransportLAN)
	c.Sighting(types.TransportLAN)
	c.SightingDropped()
	c.SetActiveConnections(2)
	c.ConnectAttempt(types.TransportRadio)
	c.ConnectFailed(types.ErrNoTransportAvailable)
	c.ConnectFailed(context.Canceled)
	c.Switched(types.TransportLAN, types.TransportRadio, types.SwitchReasonNetworkLost)
	c.SwitchThrottled()
	c.ReconnectScheduled()
	c.Quality(types.TransportLAN, 0.9)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.devicesKnown))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sightings.WithLabelValues("lan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sightingsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.activeConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.connectFailures.WithLabelValues("no_transport_available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.connectFailures.WithLabelValues("canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.switchesThrottled))
	assert.Equal(t, 0.9, testutil.ToFloat64(c.qualityScore.WithLabelValues("lan")))
}

// TestCollector_DuplicateRegister 测试重复注册返回错误
func TestCollector_DuplicateRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector("dup", reg)
	require.NoError(t, err)

	_, err = NewCollector("dup", reg)
	var are prometheus.AlreadyRegisteredError
	assert.True(t, errors.As(err, &are))
}

// TestCollector_NilSafe 测试 nil 收集器不 panic
func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.SetDevices(1)
		c.Sighting(types.TransportRadio)
		c.ConnectFailed(types.ErrClosed)
		c.Switched(types.TransportRadio, types.TransportLAN, types.SwitchReasonManual)
		c.Quality(types.TransportRadio, 0.5)
	})
}

// TestModule_Disabled 测试关闭指标时提供 nil
func TestModule_Disabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Metrics.Enabled = false

	var c *Collector
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module,
		fx.Populate(&c),
	)
	defer app.RequireStart().RequireStop()
	assert.Nil(t, c)
}

// TestModule_Enabled 测试默认提供收集器
func TestModule_Enabled(t *testing.T) {
	var c *Collector
	app := fxtest.New(t,
		Module,
		fx.Populate(&c),
	)
	defer app.RequireStart().RequireStop()
	assert.NotNil(t, c)
}
