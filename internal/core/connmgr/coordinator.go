package connmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-nearlink/internal/core/eventbus"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/internal/core/recovery"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("core/connmgr")

// Coordinator 连接协调器
//
// 每个设备至多一个活跃连接。状态表、连接池和切换标记由 mu 保护；
// 拨号、关闭句柄、停止监控等阻塞操作都在锁外执行。
type Coordinator struct {
	config  *Config
	clock   clock.Clock
	dialers map[types.Transport]interfaces.Dialer
	reach   interfaces.ReachabilityOracle
	monitor *quality.Monitor
	retry   *recovery.Scheduler
	metrics *metrics.Collector
	limiter *rate.Limiter
	events  *eventbus.Hub[types.ConnectionEvent]

	mu          sync.Mutex
	pool        *Pool
	states      map[string]types.ConnectionState
	pending     map[string]uint64
	switching   map[string]uint64
	gen         uint64
	devices     map[string]types.UnifiedDevice
	unsubscribe func()

	// monMu 串行化监控的启停，与连接池成员关系保持一致
	monMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewCoordinator 创建连接协调器
//
// monitor 与 retry 的生命周期归协调器所有，Close 时一并关闭。
func NewCoordinator(config *Config, clk clock.Clock, monitor *quality.Monitor, retry *recovery.Scheduler, dialers ...interfaces.Dialer) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if clk == nil {
		clk = clock.New()
	}
	if monitor == nil {
		monitor = quality.NewMonitor(nil, clk)
	}
	if retry == nil {
		retry = recovery.NewScheduler(nil, clk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		config:    config,
		clock:     clk,
		dialers:   make(map[types.Transport]interfaces.Dialer),
		monitor:   monitor,
		retry:     retry,
		events:    eventbus.NewHub[types.ConnectionEvent](),
		pool:      NewPool(config.MaxConnections),
		states:    make(map[string]types.ConnectionState),
		pending:   make(map[string]uint64),
		devices:   make(map[string]types.UnifiedDevice),
		switching: make(map[string]uint64),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, d := range dialers {
		if d != nil {
			c.dialers[d.Transport()] = d
		}
	}
	if config.MaxSwitchesPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.MaxSwitchesPerMinute)), config.MaxSwitchesPerMinute)
	}

	monitor.OnUpdate(c.onQualityUpdate)
	retry.SetConnector(func(ctx context.Context, device types.UnifiedDevice) error {
		return c.connect(ctx, device, false)
	})
	retry.OnScheduled(func(recovery.Attempt) { c.metrics.ReconnectScheduled() })
	return c
}

// SetMetrics 设置指标收集器
func (c *Coordinator) SetMetrics(m *metrics.Collector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// SetReachability 设置网络可达性来源，须在 Start 之前调用
func (c *Coordinator) SetReachability(r interfaces.ReachabilityOracle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reach = r
}

// Start 订阅网络可达性变化
func (c *Coordinator) Start(_ context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reach == nil || c.unsubscribe != nil {
		return nil
	}
	c.unsubscribe = c.reach.Subscribe(c.onNetworkAvailable, c.onNetworkLost)
	return nil
}

// Subscribe 订阅连接事件
//
// buffer 为 0 时使用配置的默认缓冲。
func (c *Coordinator) Subscribe(ctx context.Context, buffer int) (*eventbus.Subscription[types.ConnectionEvent], error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}
	if buffer <= 0 {
		buffer = c.config.EventBuffer
	}
	return c.events.Subscribe(ctx, buffer)
}

// ============================================================================
//                              连接
// ============================================================================

// Connect 连接设备
//
// 已连接时立即返回 nil。首选通道失败后依次尝试设备的其余通道，
// 全部失败时发出 Failed 事件并按配置安排重连。
func (c *Coordinator) Connect(ctx context.Context, device types.UnifiedDevice) error {
	return c.connect(ctx, device, c.config.AutoReconnect)
}

func (c *Coordinator) connect(ctx context.Context, device types.UnifiedDevice, scheduleRetry bool) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	id := device.ID

	c.mu.Lock()
	c.devices[id] = device
	switch c.states[id] {
	case types.StateConnected:
		c.mu.Unlock()
		return nil
	case types.StateConnecting, types.StateDisconnecting:
		c.mu.Unlock()
		return types.ErrConnectInProgress
	}
	if _, ok := c.switching[id]; ok {
		c.mu.Unlock()
		return types.ErrConnectInProgress
	}
	gen := c.beginLocked(id)
	first, err := c.selectLocked(device)
	c.mu.Unlock()

	if err != nil {
		c.fail(device, gen, err, scheduleRetry)
		return err
	}

	t, handle, err := c.establish(ctx, device, candidates(first, device.Transports))
	if err != nil {
		c.fail(device, gen, err, scheduleRetry)
		return err
	}
	return c.register(device, t, handle, gen)
}

// beginLocked 进入 Connecting 并返回本次连接的代号
func (c *Coordinator) beginLocked(id string) uint64 {
	c.gen++
	c.states[id] = types.StateConnecting
	c.pending[id] = c.gen
	return c.gen
}

// establish 按顺序尝试候选通道，第一个成功者胜出
func (c *Coordinator) establish(ctx context.Context, device types.UnifiedDevice, order []types.Transport) (types.Transport, interfaces.Handle, error) {
	var causes error
	for i, t := range order {
		handle, err := c.open(ctx, device, t)
		if err == nil {
			return t, handle, nil
		}
		causes = multierr.Append(causes, err)
		if ctx.Err() != nil || c.ctx.Err() != nil {
			break
		}
		if i+1 < len(order) {
			logger.Debug("通道连接失败，尝试回退",
				"device", log.TruncateID(device.ID, 8),
				"failed", t,
				"next", order[i+1],
				"error", err)
		}
	}
	return types.TransportUnknown, nil, fmt.Errorf("%w: %w", types.ErrAllTransportsFailed, causes)
}

type openResult struct {
	handle interfaces.Handle
	err    error
}

// open 在超时内打开一个通道
//
// 超时由协调器强制执行，拨号器迟到返回的句柄会被关闭。
func (c *Coordinator) open(ctx context.Context, device types.UnifiedDevice, t types.Transport) (interfaces.Handle, error) {
	d := c.dialers[t]
	if d == nil {
		return nil, &types.ConnectionFailedError{Transport: t, Cause: ErrNoDialer}
	}
	c.metrics.ConnectAttempt(t)

	octx, cancel := c.clock.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	ch := make(chan openResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("拨号器 panic", "transport", t, "panic", r)
				ch <- openResult{err: fmt.Errorf("dialer panic: %v", r)}
			}
		}()
		h, err := d.Open(octx, device.Clone())
		ch <- openResult{handle: h, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(octx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, c.timeoutErr(t)
			}
			return nil, &types.ConnectionFailedError{Transport: t, Cause: r.err}
		}
		if r.handle == nil {
			return nil, &types.ConnectionFailedError{Transport: t, Cause: ErrNilHandle}
		}
		return r.handle, nil
	case <-octx.Done():
	case <-c.ctx.Done():
	}

	go func() {
		if r := <-ch; r.handle != nil {
			_ = r.handle.Close()
		}
	}()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if c.ctx.Err() != nil {
		return nil, types.ErrClosed
	}
	return nil, c.timeoutErr(t)
}

func (c *Coordinator) timeoutErr(t types.Transport) error {
	return fmt.Errorf("%w: %s after %s", types.ErrConnectionTimeout, t, c.config.ConnectionTimeout)
}

// register 登记成功的连接
func (c *Coordinator) register(device types.UnifiedDevice, t types.Transport, handle interfaces.Handle, gen uint64) error {
	id := device.ID
	conn := &types.Connection{
		ID:        uuid.NewString(),
		DeviceID:  id,
		Device:    device.Clone(),
		Transport: t,
		State:     types.StateConnected,
		StartTime: c.clock.Now(),
		Handle:    handle,
	}

	c.mu.Lock()
	if c.closed.Load() || c.pending[id] != gen {
		c.mu.Unlock()
		_ = c.closeHandle(handle)
		if c.closed.Load() {
			return types.ErrClosed
		}
		return ErrConnectAborted
	}
	delete(c.pending, id)
	evicted := c.pool.Add(conn)
	c.states[id] = types.StateConnected
	if evicted != nil {
		c.states[evicted.DeviceID] = types.StateDisconnecting
	}
	n := c.pool.Len()
	c.mu.Unlock()

	c.metrics.SetActiveConnections(n)
	logger.Info("设备已连接", "device", log.TruncateID(id, 8), "transport", t)
	c.emit(types.NewConnectedEvent(id, t, conn.StartTime))
	c.startMonitor(conn)
	c.retry.Cancel(id)

	if evicted != nil {
		logger.Info("连接池已满，淘汰最早的连接", "device", log.TruncateID(evicted.DeviceID, 8))
		c.finishDisconnect(evicted)
	}
	return nil
}

// fail 连接失败：回到 Disconnected，发出 Failed 事件并按需安排重连
func (c *Coordinator) fail(device types.UnifiedDevice, gen uint64, err error, scheduleRetry bool) {
	id := device.ID
	c.mu.Lock()
	current := c.pending[id] == gen
	if current {
		delete(c.pending, id)
		c.states[id] = types.StateFailed
	}
	c.mu.Unlock()
	if !current {
		return
	}

	logger.Warn("设备连接失败", "device", log.TruncateID(id, 8), "error", err)
	c.metrics.ConnectFailed(err)
	c.emit(types.NewFailedEvent(id, err, c.clock.Now()))

	c.mu.Lock()
	if c.states[id] == types.StateFailed {
		c.states[id] = types.StateDisconnected
	}
	c.mu.Unlock()

	if scheduleRetry && !c.closed.Load() {
		c.retry.Schedule(id, device)
	}
}

// ============================================================================
//                              断开
// ============================================================================

// Disconnect 断开设备连接
//
// 未连接时为空操作；进行中的连接会被放弃，待触发的重连会被取消。
func (c *Coordinator) Disconnect(_ context.Context, deviceID string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	conn, ok := c.pool.Remove(deviceID)
	if !ok {
		if _, connecting := c.pending[deviceID]; connecting {
			delete(c.pending, deviceID)
			c.states[deviceID] = types.StateDisconnected
		}
		delete(c.switching, deviceID)
		c.mu.Unlock()
		c.retry.Cancel(deviceID)
		return nil
	}
	c.states[deviceID] = types.StateDisconnecting
	c.mu.Unlock()

	c.retry.Cancel(deviceID)
	return c.finishDisconnect(conn)
}

// finishDisconnect 停止监控、关闭句柄并发出 Disconnected 事件
//
// 调用方已在同一临界区内把状态置为 Disconnecting 并移出连接池。
func (c *Coordinator) finishDisconnect(conn *types.Connection) error {
	c.stopMonitor(conn.DeviceID)
	err := c.closeHandle(conn.Handle)
	if err != nil {
		logger.Debug("关闭连接句柄失败", "device", log.TruncateID(conn.DeviceID, 8), "error", err)
	}

	c.mu.Lock()
	if c.states[conn.DeviceID] == types.StateDisconnecting {
		c.states[conn.DeviceID] = types.StateDisconnected
	}
	n := c.pool.Len()
	c.mu.Unlock()

	c.metrics.SetActiveConnections(n)
	c.metrics.Disconnected(conn.Transport)
	logger.Info("设备已断开", "device", log.TruncateID(conn.DeviceID, 8), "transport", conn.Transport)
	c.emit(types.NewDisconnectedEvent(conn.DeviceID, conn.Transport, c.clock.Now()))
	return err
}

// startMonitor 连接仍在池中时开始质量监控
func (c *Coordinator) startMonitor(conn *types.Connection) {
	c.monMu.Lock()
	defer c.monMu.Unlock()

	c.mu.Lock()
	cur, ok := c.pool.Get(conn.DeviceID)
	live := ok && cur.ID == conn.ID
	c.mu.Unlock()

	if live {
		c.monitor.Start(conn.Snapshot(), conn.Handle)
	}
}

// stopMonitor 停止质量监控，调用方已把连接移出连接池
func (c *Coordinator) stopMonitor(deviceID string) {
	c.monMu.Lock()
	defer c.monMu.Unlock()
	c.monitor.Stop(deviceID)
}

// closeHandle 在超时内关闭句柄
func (c *Coordinator) closeHandle(h io.Closer) error {
	if h == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- h.Close() }()

	timer := c.clock.Timer(c.config.ConnectionTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrCloseTimeout
	}
}

// ============================================================================
//                              设备与查询
// ============================================================================

// UpdateDevice 更新设备快照，供后续选择与重连使用
func (c *Coordinator) UpdateDevice(device types.UnifiedDevice) {
	c.mu.Lock()
	c.devices[device.ID] = device
	if conn, ok := c.pool.Get(device.ID); ok {
		conn.Device = device.Clone()
	}
	c.mu.Unlock()
	c.retry.UpdateDevice(device)
}

// ConsumeDevices 持续读取设备流并更新快照，直到 ctx 取消或流关闭
func (c *Coordinator) ConsumeDevices(ctx context.Context, devices <-chan types.UnifiedDevice) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case d, ok := <-devices:
			if !ok {
				return
			}
			c.UpdateDevice(d)
		}
	}
}

// ConnectionState 返回设备连接状态
func (c *Coordinator) ConnectionState(deviceID string) types.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[deviceID]
}

// ActiveTransport 返回设备当前使用的通道
func (c *Coordinator) ActiveTransport(deviceID string) (types.Transport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.pool.Get(deviceID)
	if !ok {
		return types.TransportUnknown, false
	}
	return conn.Transport, true
}

// Connection 返回设备的连接快照
func (c *Coordinator) Connection(deviceID string) (types.Connection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.pool.Get(deviceID)
	if !ok {
		return types.Connection{}, false
	}
	return conn.Snapshot(), true
}

// ActiveConnections 返回所有活跃连接的快照
func (c *Coordinator) ActiveConnections() []types.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.pool.All()
	out := make([]types.Connection, 0, len(all))
	for _, conn := range all {
		out = append(out, conn.Snapshot())
	}
	return out
}

// ConnectionQuality 返回设备最近的质量采样
func (c *Coordinator) ConnectionQuality(deviceID string) (types.QualitySample, bool) {
	return c.monitor.Sample(deviceID)
}

// QualityScore 返回设备最近的质量评分，无采样时为 0
func (c *Coordinator) QualityScore(deviceID string) float64 {
	return c.monitor.Score(deviceID)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Close 关闭协调器
//
// 取消订阅与所有待触发任务，等待进行中的切换返回，并行关闭所有连接。
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if !c.closed.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return nil
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.cancel()
	c.retry.Close()
	c.wg.Wait()
	c.monitor.Close()

	c.mu.Lock()
	conns := c.pool.Clear()
	for _, conn := range conns {
		c.states[conn.DeviceID] = types.StateDisconnected
	}
	c.pending = make(map[string]uint64)
	c.switching = make(map[string]uint64)
	c.mu.Unlock()

	var (
		g    errgroup.Group
		errs error
		emu  sync.Mutex
	)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			if err := c.closeHandle(conn.Handle); err != nil {
				emu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", log.TruncateID(conn.DeviceID, 8), err))
				emu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	// 协调器 ctx 已取消，收尾事件在超时内投递
	ectx, ecancel := c.clock.WithTimeout(context.Background(), c.config.ConnectionTimeout)
	now := c.clock.Now()
	for _, conn := range conns {
		c.emitContext(ectx, types.NewDisconnectedEvent(conn.DeviceID, conn.Transport, now))
	}
	ecancel()
	c.metrics.SetActiveConnections(0)
	c.events.Close()

	logger.Info("连接协调器已关闭", "connections", len(conns))
	return errs
}

// emit 发出事件，总线关闭或协调器关闭后静默丢弃
//
// 不读取的订阅者只能阻塞到 Close 为止。
func (c *Coordinator) emit(ev types.ConnectionEvent) {
	c.emitContext(c.ctx, ev)
}

func (c *Coordinator) emitContext(ctx context.Context, ev types.ConnectionEvent) {
	err := c.events.EmitContext(ctx, ev)
	if err != nil && !errors.Is(err, eventbus.ErrClosed) && !errors.Is(err, context.Canceled) {
		logger.Debug("发出事件失败", "event", ev.String(), "error", err)
	}
}
