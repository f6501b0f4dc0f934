package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("core/recovery")

// ConnectFunc 执行一次重连
type ConnectFunc func(ctx context.Context, device types.UnifiedDevice) error

// Attempt 一次已安排的重连
type Attempt struct {
	DeviceID string
	Attempt  int
	Delay    time.Duration
}

// state 单个设备的重连状态
type state struct {
	device   types.UnifiedDevice
	attempts int
	timer    *clock.Timer
	gen      uint64
}

// Scheduler 重连调度器
type Scheduler struct {
	config *Config
	clock  clock.Clock

	mu          sync.Mutex
	connect     ConnectFunc
	states      map[string]*state
	gen         uint64
	onScheduled []func(Attempt)
	onExhausted []func(deviceID string)
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler 创建重连调度器
func NewScheduler(config *Config, clk clock.Clock) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config: config,
		clock:  clk,
		states: make(map[string]*state),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetConnector 设置连接函数
func (s *Scheduler) SetConnector(fn ConnectFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connect = fn
}

// OnScheduled 注册重连安排回调
func (s *Scheduler) OnScheduled(fn func(Attempt)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onScheduled = append(s.onScheduled, fn)
}

// OnExhausted 注册次数耗尽回调
func (s *Scheduler) OnExhausted(fn func(deviceID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExhausted = append(s.onExhausted, fn)
}

// ============================================================================
//                              调度
// ============================================================================

// Schedule 安排一次重连
//
// 取消该设备已有的待触发任务；次数已耗尽时清除状态并返回 false。
func (s *Scheduler) Schedule(deviceID string, device types.UnifiedDevice) bool {
	s.mu.Lock()
	a, exhausted, ok := s.scheduleLocked(deviceID, device)
	scheduledHooks := s.onScheduled
	exhaustedHooks := s.onExhausted
	s.mu.Unlock()

	s.notify(a, ok, exhausted, deviceID, scheduledHooks, exhaustedHooks)
	return ok
}

// scheduleLocked 在持锁状态下安排重连
func (s *Scheduler) scheduleLocked(deviceID string, device types.UnifiedDevice) (a Attempt, exhausted, ok bool) {
	if s.closed {
		return Attempt{}, false, false
	}
	if s.connect == nil {
		logger.Warn("未设置连接函数，跳过重连", "device", log.TruncateID(deviceID, 8), "error", ErrNoConnector)
		return Attempt{}, false, false
	}

	st := s.states[deviceID]
	if st == nil {
		st = &state{}
		s.states[deviceID] = st
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	if st.attempts >= s.config.MaxAttempts {
		delete(s.states, deviceID)
		logger.Info("重连次数耗尽", "device", log.TruncateID(deviceID, 8), "attempts", st.attempts)
		return Attempt{}, true, false
	}

	delay := s.config.Delay(st.attempts)
	st.attempts++
	st.device = device
	s.gen++
	gen := s.gen
	st.gen = gen
	st.timer = s.clock.AfterFunc(delay, func() { s.fire(deviceID, gen) })

	logger.Debug("已安排重连", "device", log.TruncateID(deviceID, 8), "attempt", st.attempts, "delay", delay)
	return Attempt{DeviceID: deviceID, Attempt: st.attempts, Delay: delay}, false, true
}

func (s *Scheduler) notify(a Attempt, scheduled, exhausted bool, deviceID string, onScheduled []func(Attempt), onExhausted []func(string)) {
	if scheduled {
		for _, fn := range onScheduled {
			fn(a)
		}
	}
	if exhausted {
		for _, fn := range onExhausted {
			fn(deviceID)
		}
	}
}

// fire 定时器触发
func (s *Scheduler) fire(deviceID string, gen uint64) {
	s.mu.Lock()
	st := s.states[deviceID]
	if s.closed || st == nil || st.gen != gen {
		s.mu.Unlock()
		return
	}
	st.timer = nil
	device := st.device
	connect := s.connect
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	err := connect(s.ctx, device)

	s.mu.Lock()
	cur := s.states[deviceID]
	if cur == nil || cur.gen != gen {
		// 尝试期间被取消或重新安排
		s.mu.Unlock()
		return
	}
	if err == nil || errors.Is(err, types.ErrConnectInProgress) || s.ctx.Err() != nil {
		delete(s.states, deviceID)
		s.mu.Unlock()
		if err == nil {
			logger.Info("重连成功", "device", log.TruncateID(deviceID, 8))
		}
		return
	}

	logger.Debug("重连失败", "device", log.TruncateID(deviceID, 8), "error", err)
	a, exhausted, ok := s.scheduleLocked(deviceID, device)
	scheduledHooks := s.onScheduled
	exhaustedHooks := s.onExhausted
	s.mu.Unlock()

	s.notify(a, ok, exhausted, deviceID, scheduledHooks, exhaustedHooks)
}

// Cancel 取消设备的重连并清除状态
func (s *Scheduler) Cancel(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(deviceID)
}

func (s *Scheduler) cancelLocked(deviceID string) {
	st := s.states[deviceID]
	if st == nil {
		return
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(s.states, deviceID)
}

// CancelAll 取消所有重连
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.states {
		s.cancelLocked(id)
	}
}

// UpdateDevice 更新待重连设备的快照
func (s *Scheduler) UpdateDevice(device types.UnifiedDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.states[device.ID]; st != nil {
		st.device = device
	}
}

// ============================================================================
//                              查询
// ============================================================================

// Attempts 返回设备已安排的重连次数
func (s *Scheduler) Attempts(deviceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.states[deviceID]; st != nil {
		return st.attempts
	}
	return 0
}

// Pending 设备是否有待触发的重连
func (s *Scheduler) Pending(deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[deviceID]
	return st != nil && st.timer != nil
}

// Tracked 返回有重连状态的设备数
func (s *Scheduler) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Close 取消所有定时器并等待进行中的重连返回
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id := range s.states {
		s.cancelLocked(id)
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}
