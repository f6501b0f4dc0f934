package recovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nearlink/pkg/types"
)

var errDialFailed = errors.New("dial failed")

func testDevice(id string) types.UnifiedDevice {
	return types.UnifiedDevice{ID: id, Transports: types.NewTransportSet(types.TransportLAN)}
}

func testConfig() *Config {
	return &Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, BackoffFactor: 2}
}

// TestConfig_Delay 测试退避计算
func TestConfig_Delay(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1*time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 16*time.Second, cfg.Delay(4))
	assert.Equal(t, 30*time.Second, cfg.Delay(5))
	assert.Equal(t, 30*time.Second, cfg.Delay(100))
}

// TestConfig_Validate 测试配置修复
func TestConfig_Validate(t *testing.T) {
	cfg := &Config{MaxAttempts: -1, BackoffFactor: 0.5}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
}

// TestScheduler_ExhaustsAfterMaxAttempts 测试始终失败时恰好重连 3 次，退避 1s/2s/4s
func TestScheduler_ExhaustsAfterMaxAttempts(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)
	defer s.Close()

	var mu sync.Mutex
	var delays []time.Duration
	s.OnScheduled(func(a Attempt) {
		mu.Lock()
		delays = append(delays, a.Delay)
		mu.Unlock()
		assert.LessOrEqual(t, a.Attempt, 3)
	})
	var exhausted atomic.Int32
	s.OnExhausted(func(string) { exhausted.Add(1) })

	var calls atomic.Int32
	s.SetConnector(func(context.Context, types.UnifiedDevice) error {
		calls.Add(1)
		return errDialFailed
	})

	require.True(t, s.Schedule("dev", testDevice("dev")))

	for i, d := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		mock.Add(d - time.Millisecond)
		assert.Equal(t, int32(i), calls.Load(), "fired early at attempt %d", i+1)
		mock.Add(time.Millisecond)

		want := int32(i + 1)
		require.Eventually(t, func() bool {
			if calls.Load() != want {
				return false
			}
			// 等待重新安排或耗尽
			return s.Pending("dev") || s.Tracked() == 0
		}, time.Second, 2*time.Millisecond)
		assert.LessOrEqual(t, s.Attempts("dev"), 3)
	}

	require.Eventually(t, func() bool { return exhausted.Load() == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 0, s.Tracked())

	mock.Add(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())

	mu.Lock()
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	mu.Unlock()
}

// TestScheduler_SuccessClearsState 测试成功后清除状态
func TestScheduler_SuccessClearsState(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)
	defer s.Close()

	var calls atomic.Int32
	s.SetConnector(func(_ context.Context, d types.UnifiedDevice) error {
		assert.Equal(t, "dev", d.ID)
		calls.Add(1)
		return nil
	})

	require.True(t, s.Schedule("dev", testDevice("dev")))
	assert.Equal(t, 1, s.Attempts("dev"))

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return s.Tracked() == 0 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, s.Attempts("dev"))
}

// TestScheduler_CancelStopsPending 测试取消后不再触发
func TestScheduler_CancelStopsPending(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)
	defer s.Close()

	var calls atomic.Int32
	s.SetConnector(func(context.Context, types.UnifiedDevice) error {
		calls.Add(1)
		return errDialFailed
	})

	require.True(t, s.Schedule("dev", testDevice("dev")))
	require.True(t, s.Pending("dev"))

	s.Cancel("dev")
	assert.False(t, s.Pending("dev"))
	assert.Equal(t, 0, s.Attempts("dev"))

	mock.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

// TestScheduler_RescheduleDeduplicates 测试重复安排只保留一个任务
func TestScheduler_RescheduleDeduplicates(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)
	defer s.Close()

	var calls atomic.Int32
	s.SetConnector(func(context.Context, types.UnifiedDevice) error {
		calls.Add(1)
		return nil
	})

	require.True(t, s.Schedule("dev", testDevice("dev")))
	require.True(t, s.Schedule("dev", testDevice("dev")))
	assert.Equal(t, 2, s.Attempts("dev"))

	// 第一个定时器已被停止
	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 2*time.Millisecond)

	mock.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

// TestScheduler_InProgressClears 测试连接进行中时不再重试
func TestScheduler_InProgressClears(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)
	defer s.Close()

	s.SetConnector(func(context.Context, types.UnifiedDevice) error {
		return types.ErrConnectInProgress
	})
	require.True(t, s.Schedule("dev", testDevice("dev")))
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return s.Tracked() == 0 }, time.Second, 2*time.Millisecond)
}

// TestScheduler_Disabled 测试 MaxAttempts 为 0 时不安排
func TestScheduler_Disabled(t *testing.T) {
	s := NewScheduler(&Config{MaxAttempts: 0}, clock.NewMock())
	defer s.Close()
	s.SetConnector(func(context.Context, types.UnifiedDevice) error { return nil })

	assert.False(t, s.Schedule("dev", testDevice("dev")))
	assert.Equal(t, 0, s.Tracked())
}

// TestScheduler_NoConnector 测试未设置连接函数
func TestScheduler_NoConnector(t *testing.T) {
	s := NewScheduler(nil, clock.NewMock())
	defer s.Close()
	assert.False(t, s.Schedule("dev", testDevice("dev")))
}

// TestScheduler_CloseWaitsForInFlight 测试关闭等待进行中的重连并取消其 context
func TestScheduler_CloseWaitsForInFlight(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testConfig(), mock)

	started := make(chan struct{})
	var finished atomic.Bool
	s.SetConnector(func(ctx context.Context, _ types.UnifiedDevice) error {
		close(started)
		<-ctx.Done()
		finished.Store(true)
		return ctx.Err()
	})

	require.True(t, s.Schedule("dev", testDevice("dev")))
	mock.Add(time.Second)
	<-started

	s.Close()
	assert.True(t, finished.Load())
	assert.Equal(t, 0, s.Tracked())
	assert.False(t, s.Schedule("dev", testDevice("dev")))
}
