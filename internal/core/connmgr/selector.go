package connmgr

import (
	"github.com/dep2p/go-nearlink/pkg/types"
)

// ============================================================================
//                              通道选择
// ============================================================================

// SelectTransport 为设备选择连接通道
//
// 决策顺序：
//  1. 已有连接且质量高于 KeepQualityThreshold：保持当前通道
//  2. 设备支持局域网、网络可达且质量低于 SwitchThreshold：局域网
//  3. 设备支持无线电：无线电
//  4. 否则返回 types.ErrNoTransportAvailable
func (c *Coordinator) SelectTransport(device types.UnifiedDevice) (types.Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(device)
}

func (c *Coordinator) selectLocked(device types.UnifiedDevice) (types.Transport, error) {
	score := c.monitor.Score(device.ID)

	if conn, ok := c.pool.Get(device.ID); ok && score > c.config.KeepQualityThreshold {
		return conn.Transport, nil
	}
	if device.Transports.Has(types.TransportLAN) && c.networkAvailable() && score < c.config.SwitchThreshold {
		return types.TransportLAN, nil
	}
	if device.Transports.Has(types.TransportRadio) {
		return types.TransportRadio, nil
	}
	return types.TransportUnknown, types.ErrNoTransportAvailable
}

// candidates 返回首选通道与回退顺序
//
// 回退覆盖设备通道集合中的其余通道，按 lan、radio 的固定顺序。
func candidates(first types.Transport, set types.TransportSet) []types.Transport {
	out := []types.Transport{first}
	for _, t := range set.Slice() {
		if t != first {
			out = append(out, t)
		}
	}
	return out
}

// Advantage 返回切回局域网的通道优势
//
// 台式机与笔记本为 0.9，支持文件传输的设备为 0.8，其他为 0.6。
func Advantage(device types.UnifiedDevice) float64 {
	switch {
	case device.Class == types.DeviceClassDesktop || device.Class == types.DeviceClassLaptop:
		return 0.9
	case device.Capabilities.Has(types.CapabilityFileTransfer):
		return 0.8
	default:
		return 0.6
	}
}

func (c *Coordinator) networkAvailable() bool {
	if c.reach == nil {
		return true
	}
	return c.reach.IsNetworkAvailable()
}
