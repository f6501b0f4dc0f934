// Package quality 实现设备质量评分与连接质量监控
package quality

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("core/quality")

// Update 质量更新事件
type Update struct {
	DeviceID     string
	ConnectionID string
	Transport    types.Transport
	Sample       types.QualitySample
	Score        float64
}

// record 最近一次采样
type record struct {
	sample types.QualitySample
	score  float64
}

// loop 单个连接的采样循环
type loop struct {
	connID string
	cancel context.CancelFunc
	done   chan struct{}
}

// Monitor 连接质量监控器
//
// 每个活跃连接一个采样循环，首次立即采样，之后按 Interval 周期采样。
// Stop 同步等待循环退出，循环退出后不会再写入采样。
type Monitor struct {
	config *Config
	clock  clock.Clock

	mu       sync.Mutex
	probers  map[types.Transport]interfaces.QualityProber
	loops    map[string]*loop
	latest   map[string]record
	handlers []func(Update)

	closed atomic.Bool
}

// NewMonitor 创建监控器
func NewMonitor(config *Config, clk clock.Clock) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		config:  config,
		clock:   clk,
		probers: make(map[types.Transport]interfaces.QualityProber),
		loops:   make(map[string]*loop),
		latest:  make(map[string]record),
	}
}

// SetProber 设置通道探测器
func (m *Monitor) SetProber(t types.Transport, p interfaces.QualityProber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		delete(m.probers, t)
		return
	}
	m.probers[t] = p
}

// OnUpdate 注册质量更新回调
//
// 回调在采样循环中同步执行，不得阻塞，也不得对同一设备调用 Stop。
func (m *Monitor) OnUpdate(fn func(Update)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// Start 开始监控连接，替换该设备已有的采样循环
func (m *Monitor) Start(conn types.Connection, handle interfaces.Handle) {
	if m.closed.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{connID: conn.ID, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		cancel()
		return
	}
	old := m.loops[conn.DeviceID]
	m.loops[conn.DeviceID] = l
	delete(m.latest, conn.DeviceID)
	m.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
	}

	logger.Debug("开始质量监控", "device", log.TruncateID(conn.DeviceID, 8), "transport", conn.Transport)
	go m.run(ctx, l, conn, handle)
}

// Stop 停止监控并丢弃已有采样，返回时循环已退出
func (m *Monitor) Stop(deviceID string) {
	m.mu.Lock()
	l := m.loops[deviceID]
	delete(m.loops, deviceID)
	delete(m.latest, deviceID)
	m.mu.Unlock()

	if l == nil {
		return
	}
	l.cancel()
	<-l.done
	logger.Debug("停止质量监控", "device", log.TruncateID(deviceID, 8))
}

// Close 停止所有采样循环
func (m *Monitor) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	m.mu.Lock()
	loops := m.loops
	m.loops = make(map[string]*loop)
	m.latest = make(map[string]record)
	m.mu.Unlock()

	for _, l := range loops {
		l.cancel()
	}
	for _, l := range loops {
		<-l.done
	}
}

// Score 返回设备最近的质量评分，无采样时为 0
func (m *Monitor) Score(deviceID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest[deviceID].score
}

// Sample 返回设备最近的采样
func (m *Monitor) Sample(deviceID string) (types.QualitySample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.latest[deviceID]
	return r.sample, ok
}

// Monitoring 设备是否有采样循环
func (m *Monitor) Monitoring(deviceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loops[deviceID]
	return ok
}

// Active 返回采样循环数量
func (m *Monitor) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops)
}

// ============================================================================
//                              采样循环
// ============================================================================

func (m *Monitor) run(ctx context.Context, l *loop, conn types.Connection, handle interfaces.Handle) {
	defer close(l.done)

	ticker := m.clock.Ticker(m.config.Interval)
	defer ticker.Stop()

	m.sampleOnce(ctx, l, conn, handle)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sampleOnce(ctx, l, conn, handle)
		}
	}
}

func (m *Monitor) sampleOnce(ctx context.Context, l *loop, conn types.Connection, handle interfaces.Handle) {
	m.mu.Lock()
	prober := m.probers[conn.Transport]
	m.mu.Unlock()
	if prober == nil {
		logger.Debug("跳过采样", "transport", conn.Transport, "error", ErrNoProber)
		return
	}

	probeCtx, cancel := m.clock.WithTimeout(ctx, m.config.ProbeTimeout)
	sample, err := m.probe(probeCtx, prober, conn, handle)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("质量采样失败", "device", log.TruncateID(conn.DeviceID, 8), "error", err)
		}
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = m.clock.Now()
	}
	score := SampleScore(sample)

	m.mu.Lock()
	if ctx.Err() != nil || m.loops[conn.DeviceID] != l {
		m.mu.Unlock()
		return
	}
	m.latest[conn.DeviceID] = record{sample: sample, score: score}
	handlers := make([]func(Update), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	u := Update{
		DeviceID:     conn.DeviceID,
		ConnectionID: conn.ID,
		Transport:    conn.Transport,
		Sample:       sample,
		Score:        score,
	}
	for _, h := range handlers {
		m.dispatch(h, u)
	}
}

func (m *Monitor) probe(ctx context.Context, p interfaces.QualityProber, conn types.Connection, handle interfaces.Handle) (s types.QualitySample, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("质量探测 panic", "panic", r)
			err = ErrProbePanic
		}
	}()
	return p.Probe(ctx, conn, handle)
}

func (m *Monitor) dispatch(h func(Update), u Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("质量回调 panic", "panic", r)
		}
	}()
	h(u)
}
