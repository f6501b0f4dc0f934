package connmgr

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// ============================================================================
//                              通道切换
// ============================================================================

// SwitchTransport 手动把设备切换到指定通道
//
// 当前已在目标通道时返回 nil。切换失败但原通道恢复成功时返回 ErrSwitchFailed。
func (c *Coordinator) SwitchTransport(ctx context.Context, deviceID string, target types.Transport) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	return c.switchTransport(ctx, deviceID, target, types.SwitchReasonManual)
}

// onQualityUpdate 质量低于阈值时尝试切到另一通道
func (c *Coordinator) onQualityUpdate(u quality.Update) {
	c.metrics.Quality(u.Transport, u.Score)
	if !c.config.EnableAutoSwitch || c.closed.Load() || u.Score >= c.config.SwitchThreshold {
		return
	}

	c.mu.Lock()
	conn, ok := c.pool.Get(u.DeviceID)
	if !ok || conn.ID != u.ConnectionID {
		c.mu.Unlock()
		return
	}
	if _, busy := c.switching[u.DeviceID]; busy {
		c.mu.Unlock()
		return
	}
	device := c.deviceLocked(u.DeviceID)
	c.mu.Unlock()

	target := conn.Transport.Other()
	if !device.Transports.Has(target) {
		return
	}
	if target == types.TransportLAN && !c.networkAvailable() {
		return
	}
	logger.Info("连接质量下降，尝试切换通道",
		"device", log.TruncateID(u.DeviceID, 8),
		"score", u.Score,
		"from", conn.Transport,
		"to", target)
	c.spawnSwitch(u.DeviceID, target, types.SwitchReasonQualityDegraded)
}

// onNetworkLost 网络断开：局域网连接切到无线电
func (c *Coordinator) onNetworkLost() {
	if !c.config.EnableAutoSwitch || c.closed.Load() {
		return
	}
	for _, conn := range c.ActiveConnections() {
		if conn.Transport != types.TransportLAN {
			continue
		}
		if !c.device(conn.DeviceID).Transports.Has(types.TransportRadio) {
			continue
		}
		c.spawnSwitch(conn.DeviceID, types.TransportRadio, types.SwitchReasonNetworkLost)
	}
}

// onNetworkAvailable 网络恢复：质量不足或局域网优势足够时切回局域网
func (c *Coordinator) onNetworkAvailable() {
	if !c.config.EnableAutoSwitch || c.closed.Load() {
		return
	}
	for _, conn := range c.ActiveConnections() {
		if conn.Transport != types.TransportRadio {
			continue
		}
		device := c.device(conn.DeviceID)
		if !device.Transports.Has(types.TransportLAN) {
			continue
		}
		score := c.monitor.Score(conn.DeviceID)
		if score < c.config.SwitchThreshold || Advantage(device) > c.config.AdvantageThreshold {
			c.spawnSwitch(conn.DeviceID, types.TransportLAN, types.SwitchReasonNetworkRecovered)
		}
	}
}

// spawnSwitch 在后台执行切换，Close 会等待其返回
func (c *Coordinator) spawnSwitch(deviceID string, target types.Transport, reason types.SwitchReason) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := c.switchTransport(c.ctx, deviceID, target, reason); err != nil {
			logger.Debug("自动切换未完成",
				"device", log.TruncateID(deviceID, 8),
				"reason", reason,
				"error", err)
		}
	}()
}

// switchTransport 断开当前通道，等待稳定后在目标通道重连
//
// 目标通道失败时重试原通道；两者都失败则发出 Failed 事件并安排重连。
func (c *Coordinator) switchTransport(ctx context.Context, deviceID string, target types.Transport, reason types.SwitchReason) error {
	c.mu.Lock()
	conn, ok := c.pool.Get(deviceID)
	if !ok {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if conn.Transport == target {
		c.mu.Unlock()
		return nil
	}
	if _, busy := c.switching[deviceID]; busy {
		c.mu.Unlock()
		return ErrSwitchInProgress
	}
	if c.limiter != nil && !c.limiter.AllowN(c.clock.Now(), 1) {
		c.mu.Unlock()
		c.metrics.SwitchThrottled()
		return ErrSwitchThrottled
	}
	c.gen++
	token := c.gen
	c.switching[deviceID] = token
	c.pool.Remove(deviceID)
	c.states[deviceID] = types.StateDisconnecting
	device := c.deviceLocked(deviceID)
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		if c.switching[deviceID] == token {
			delete(c.switching, deviceID)
		}
		c.mu.Unlock()
	}
	defer release()

	from := conn.Transport
	_ = c.finishDisconnect(conn)

	if err := c.settle(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed.Load() || c.switching[deviceID] != token {
		c.mu.Unlock()
		return ErrConnectAborted
	}
	gen := c.beginLocked(deviceID)
	c.mu.Unlock()

	handle, err := c.open(ctx, device, target)
	if err == nil {
		if err := c.register(device, target, handle, gen); err != nil {
			return err
		}
		release()
		logger.Info("通道切换完成",
			"device", log.TruncateID(deviceID, 8),
			"from", from,
			"to", target,
			"reason", reason)
		c.metrics.Switched(from, target, reason)
		c.emit(types.NewSwitchedEvent(deviceID, from, target, reason, c.clock.Now()))
		return nil
	}

	logger.Warn("切换失败，回退原通道",
		"device", log.TruncateID(deviceID, 8),
		"target", target,
		"error", err)
	handle, errBack := c.open(ctx, device, from)
	if errBack == nil {
		if err := c.register(device, from, handle, gen); err != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSwitchFailed, err)
	}

	failure := fmt.Errorf("%w: %w", types.ErrAllTransportsFailed, multierr.Combine(err, errBack))
	c.fail(device, gen, failure, c.config.AutoReconnect)
	return failure
}

// settle 切换前的稳定等待
func (c *Coordinator) settle(ctx context.Context) error {
	if c.config.SwitchSettleDelay <= 0 {
		return nil
	}
	timer := c.clock.Timer(c.config.SwitchSettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return types.ErrClosed
	}
}

// device 返回设备的最新快照
func (c *Coordinator) device(deviceID string) types.UnifiedDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceLocked(deviceID)
}

func (c *Coordinator) deviceLocked(deviceID string) types.UnifiedDevice {
	if d, ok := c.devices[deviceID]; ok {
		return d
	}
	if conn, ok := c.pool.Get(deviceID); ok {
		return conn.Device
	}
	return types.UnifiedDevice{ID: deviceID}
}
