package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/dep2p/go-nearlink/internal/core/eventbus"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("discovery/coordinator")

// ============================================================================
//                              Coordinator
// ============================================================================

// Coordinator 发现协调器
//
// 按环境选择发现策略、驱动各通道扫描器，并把同一设备在不同通道上的发现
// 合并为一条 UnifiedDevice 记录。
type Coordinator struct {
	config   *Config
	clock    clock.Clock
	scanners map[types.Transport]interfaces.TransportScanner
	reach    interfaces.ReachabilityOracle
	radio    interfaces.RadioOracle
	metrics  *metrics.Collector

	hub *eventbus.Hub[types.UnifiedDevice]

	// engineMu 串行化扫描器启停，不在持有 mu 时获取
	engineMu sync.Mutex
	runs     map[types.Transport]*scanRun

	// mergeMu 保证发射顺序与合并顺序一致
	mergeMu sync.Mutex

	mu           sync.Mutex
	cache        *simplelru.LRU[string, *entry]
	strategy     types.DiscoveryStrategy
	lanEnabled   bool
	radioEnabled bool
	running      bool
	epoch        uint64
	secondary    *clock.Timer
	onError      []func(error)
	unsubscribe  func()

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
}

// scanRun 一次扫描器运行
type scanRun struct {
	scanner interfaces.TransportScanner
	cancel  context.CancelFunc
}

// NewCoordinator 创建发现协调器
func NewCoordinator(config *Config, clk clock.Clock, scanners ...interfaces.TransportScanner) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if clk == nil {
		clk = clock.New()
	}

	// 容量淘汰由 merge 自行判断，LRU 本身不会触发淘汰
	cache, _ := simplelru.NewLRU[string, *entry](config.MaxDevices, nil)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		config:       config,
		clock:        clk,
		scanners:     make(map[types.Transport]interfaces.TransportScanner),
		hub:          eventbus.NewHub[types.UnifiedDevice](),
		runs:         make(map[types.Transport]*scanRun),
		cache:        cache,
		lanEnabled:   config.LANEnabled,
		radioEnabled: config.RadioEnabled,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, s := range scanners {
		if s != nil {
			c.scanners[s.Transport()] = s
		}
	}
	c.hub.OnChange(func(n int) { c.setRunning(n > 0) })
	return c
}

// SetReachability 设置网络可达性来源，须在 Start 之前调用
func (c *Coordinator) SetReachability(r interfaces.ReachabilityOracle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reach = r
}

// SetRadioOracle 设置无线开关状态来源
func (c *Coordinator) SetRadioOracle(r interfaces.RadioOracle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radio = r
}

// SetMetrics 设置指标收集器
func (c *Coordinator) SetMetrics(m *metrics.Collector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// OnError 注册扫描错误回调
func (c *Coordinator) OnError(fn func(error)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// Start 订阅环境变化并计算初始策略
func (c *Coordinator) Start(_ context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	reach := c.reach
	smart := c.config.EnableSmartSwitching
	c.mu.Unlock()

	if reach != nil && smart {
		unsub := reach.Subscribe(c.RefreshEnvironment, c.RefreshEnvironment)
		c.mu.Lock()
		c.unsubscribe = unsub
		c.mu.Unlock()
	}
	c.RefreshEnvironment()

	logger.Info("发现协调器已启动",
		"strategy", c.Strategy(),
		"scanners", len(c.scanners))
	return nil
}

// Stop 停止所有扫描器并结束所有设备流
func (c *Coordinator) Stop() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}

	c.engineMu.Lock()
	c.mu.Lock()
	c.running = false
	c.epoch++
	if c.secondary != nil {
		c.secondary.Stop()
		c.secondary = nil
	}
	c.mu.Unlock()
	for t := range c.runs {
		c.stopRunLocked(t)
	}
	c.engineMu.Unlock()

	c.hub.Close()
	c.cancel()
	c.wg.Wait()

	logger.Info("发现协调器已停止")
	return nil
}

// ============================================================================
//                              设备流
// ============================================================================

// StartDiscovery 返回合并后的设备流
//
// 首个订阅者启动扫描；ctx 取消后该订阅的通道关闭，最后一个订阅者离开时
// 停止所有扫描器，之后的订阅会重新启动扫描。
func (c *Coordinator) StartDiscovery(ctx context.Context) (<-chan types.UnifiedDevice, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}
	sub, err := c.hub.Subscribe(ctx, c.config.StreamBuffer)
	if err != nil {
		return nil, types.ErrClosed
	}
	return sub.Out(), nil
}

// Running 扫描引擎是否在运行
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// ============================================================================
//                              策略
// ============================================================================

// Strategy 返回当前发现策略
func (c *Coordinator) Strategy() types.DiscoveryStrategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// SetEnabled 设置通道启用状态并重新选择策略
func (c *Coordinator) SetEnabled(lan, radio bool) {
	c.mu.Lock()
	c.lanEnabled = lan
	c.radioEnabled = radio
	c.mu.Unlock()
	c.RefreshEnvironment()
}

// RefreshEnvironment 重新读取环境并在策略变化时调整扫描器
func (c *Coordinator) RefreshEnvironment() {
	if c.closed.Load() {
		return
	}
	c.engineMu.Lock()
	defer c.engineMu.Unlock()
	c.applyLocked(false)
}

func (c *Coordinator) setRunning(on bool) {
	c.engineMu.Lock()
	defer c.engineMu.Unlock()

	c.mu.Lock()
	if c.running == on || (on && c.closed.Load()) {
		c.mu.Unlock()
		return
	}
	c.running = on
	c.mu.Unlock()

	if on {
		logger.Debug("首个订阅者到达，启动扫描")
	} else {
		logger.Debug("订阅者全部离开，停止扫描")
	}
	c.applyLocked(true)
}

// environment 在锁外读取环境，oracle 调用可能涉及系统调用
func (c *Coordinator) environment() Environment {
	c.mu.Lock()
	env := Environment{
		LANEnabled:   c.lanEnabled,
		RadioEnabled: c.radioEnabled,
		Primary:      c.config.Primary,
	}
	reach, radio := c.reach, c.radio
	c.mu.Unlock()

	env.NetworkAvailable = reach == nil || reach.IsNetworkAvailable()
	env.RadioAvailable = radio == nil || radio.IsRadioEnabled()
	return env
}

// applyLocked 按当前环境调整扫描器，调用方持有 engineMu
//
// force 为 false 时策略不变则不做任何事。
func (c *Coordinator) applyLocked(force bool) {
	next := SelectStrategy(c.environment())

	c.mu.Lock()
	prev := c.strategy
	if prev == next && !force {
		c.mu.Unlock()
		return
	}
	c.strategy = next
	c.epoch++
	epoch := c.epoch
	if c.secondary != nil {
		c.secondary.Stop()
		c.secondary = nil
	}
	running := c.running && !c.closed.Load()
	c.mu.Unlock()

	if prev != next {
		logger.Info("发现策略变化", "from", prev, "to", next)
	}

	for t := range c.runs {
		if !running || !uses(next, t) {
			c.stopRunLocked(t)
		}
	}
	if !running || next == types.StrategyNone {
		return
	}

	if p := next.Primary(); c.runs[p] == nil {
		c.startRunLocked(p)
	}

	s := next.Secondary()
	if s == types.TransportUnknown || c.runs[s] != nil {
		return
	}
	delay := c.config.secondaryDelay(s)
	if delay <= 0 {
		c.startRunLocked(s)
		return
	}
	c.mu.Lock()
	c.secondary = c.clock.AfterFunc(delay, func() { c.startSecondary(epoch, s) })
	c.mu.Unlock()
	logger.Debug("次通道延迟启动", "transport", s, "delay", delay)
}

// startSecondary 宽限期结束后，仅当策略未变时启动次通道
func (c *Coordinator) startSecondary(epoch uint64, t types.Transport) {
	c.engineMu.Lock()
	defer c.engineMu.Unlock()

	c.mu.Lock()
	current := c.epoch == epoch && c.running && !c.closed.Load()
	if current {
		c.secondary = nil
	}
	c.mu.Unlock()

	if !current || c.runs[t] != nil {
		return
	}
	c.startRunLocked(t)
}

// ============================================================================
//                              扫描器运行
// ============================================================================

func (c *Coordinator) startRunLocked(t types.Transport) {
	sc, ok := c.scanners[t]
	if !ok {
		logger.Debug("通道没有扫描器", "transport", t)
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	ch, err := sc.Start(ctx)
	if err != nil {
		cancel()
		c.reportError(fmt.Errorf("%w: %s: %w", ErrScannerStart, t, err))
		return
	}

	c.runs[t] = &scanRun{scanner: sc, cancel: cancel}
	c.wg.Add(1)
	go c.pump(ctx, t, ch)
	logger.Info("扫描器已启动", "transport", t)
}

// stopRunLocked 停止扫描器，不等待进行中的合并
func (c *Coordinator) stopRunLocked(t types.Transport) {
	run, ok := c.runs[t]
	if !ok {
		return
	}
	delete(c.runs, t)
	run.cancel()
	if err := run.scanner.Stop(); err != nil {
		logger.Debug("停止扫描器出错", "transport", t, "error", err)
	}
	logger.Info("扫描器已停止", "transport", t)
}

func (c *Coordinator) pump(ctx context.Context, t types.Transport, ch <-chan types.RawSighting) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				logger.Debug("扫描通道已关闭", "transport", t)
				return
			}
			if ctx.Err() != nil {
				return
			}
			c.Ingest(t, raw)
		}
	}
}

// reportError 记录并分发扫描错误，单个回调 panic 不影响其他回调
func (c *Coordinator) reportError(err error) {
	logger.Warn("发现处理出错", "error", err)

	c.mu.Lock()
	handlers := make([]func(error), len(c.onError))
	copy(handlers, c.onError)
	c.mu.Unlock()

	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("错误回调 panic", "panic", r)
				}
			}()
			fn(err)
		}()
	}
}
