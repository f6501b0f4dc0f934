package coordinator

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// entry 缓存中的设备记录及评分输入
type entry struct {
	device types.UnifiedDevice
	named  bool

	// signal 已采纳的信号样本，nil 表示从未收到
	signal  *int
	battery *int
}

// ============================================================================
//                              合并
// ============================================================================

// Ingest 合并一次发现并向设备流发射合并结果
//
// 返回 false 表示发现被丢弃（缺少标识、容量已满或处理 panic）。
func (c *Coordinator) Ingest(t types.Transport, raw types.RawSighting) (dev types.UnifiedDevice, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			dev, ok = types.UnifiedDevice{}, false
			c.reportError(fmt.Errorf("%w: %v", ErrSightingPanic, r))
		}
	}()

	c.mergeMu.Lock()
	defer c.mergeMu.Unlock()

	dev, ok, err := c.merge(t, raw)
	if err != nil {
		c.reportError(err)
		return dev, false
	}
	if !ok {
		return dev, false
	}
	_ = c.hub.Emit(dev)
	return dev, true
}

func (c *Coordinator) merge(t types.Transport, raw types.RawSighting) (types.UnifiedDevice, bool, error) {
	key := raw.MergeKey()
	if key == "" {
		return types.UnifiedDevice{}, false, fmt.Errorf("%w: transport %s", ErrInvalidSighting, t)
	}

	now := c.clock.Now()
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = now
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.cache.Peek(key)
	if !found {
		if c.cache.Len() >= c.config.MaxDevices && !c.evictStaleLocked(now) {
			c.metrics.SightingDropped()
			logger.Debug("设备列表已满，丢弃发现",
				"device", log.TruncateID(key, 8),
				"transport", t)
			return types.UnifiedDevice{}, false, nil
		}
		e = c.newEntry(key, t, raw, ts)
		logger.Debug("发现新设备",
			"device", log.TruncateID(key, 8),
			"name", e.device.DisplayName,
			"transport", t)
	} else {
		c.mergeEntry(e, t, raw, ts, now)
	}
	c.cache.Add(key, e)

	c.metrics.Sighting(t)
	c.metrics.SetDevices(c.cache.Len())
	return e.device.Clone(), true, nil
}

// evictStaleLocked 淘汰最旧记录，仅当它超过 DiscoveryTimeout 未出现
func (c *Coordinator) evictStaleLocked(now time.Time) bool {
	key, oldest, ok := c.cache.GetOldest()
	if !ok {
		return true
	}
	if now.Sub(oldest.device.LastSeen) <= c.config.DiscoveryTimeout {
		return false
	}
	c.cache.RemoveOldest()
	logger.Debug("淘汰过期设备", "device", log.TruncateID(key, 8))
	return true
}

func (c *Coordinator) newEntry(key string, t types.Transport, raw types.RawSighting, ts time.Time) *entry {
	e := &entry{
		device: types.UnifiedDevice{
			ID:           key,
			DisplayName:  raw.Name,
			Class:        raw.Class,
			Capabilities: types.NewCapabilitySet(raw.Capabilities...),
			Transports:   types.NewTransportSet(t),
			Endpoints:    make(map[types.Transport]string, 2),
			LastSeen:     ts,
			Attributes:   make(map[string]types.Attribute, len(raw.Attributes)+5),
		},
		named:   raw.Name != "",
		signal:  copyInt(raw.SignalHint),
		battery: copyInt(raw.BatteryHint),
	}
	if !e.named {
		e.device.DisplayName = key
	}
	if raw.TransportLocalID != "" {
		e.device.Endpoints[t] = raw.TransportLocalID
	}

	attrs := e.device.Attributes
	for k, v := range raw.Attributes {
		attrs[k] = types.Attribute{Value: v, Transport: t, UpdatedAt: ts}
	}
	set := func(k, v string) { attrs[k] = types.Attribute{Value: v, Transport: t, UpdatedAt: ts} }
	set(types.AttrConnectionType, t.String())
	set(types.AttrDiscoveredTransport, t.String())
	set(types.AttrInitialTimestamp, strconv.FormatInt(ts.UnixMilli(), 10))
	if e.signal != nil {
		set(types.AttrRSSI, strconv.Itoa(*e.signal))
	}
	if e.battery != nil {
		set(types.AttrBatteryLevel, strconv.Itoa(*e.battery))
	}

	e.device.QualityScore = quality.BaseQuality(t, c.signalOf(e))
	return e
}

func (c *Coordinator) mergeEntry(e *entry, t types.Transport, raw types.RawSighting, ts, now time.Time) {
	d := &e.device
	d.Transports = d.Transports.With(t)
	if ts.After(d.LastSeen) {
		d.LastSeen = ts
	}
	if raw.TransportLocalID != "" {
		d.Endpoints[t] = raw.TransportLocalID
	}
	if !e.named && raw.Name != "" {
		d.DisplayName = raw.Name
		e.named = true
	}
	if d.Class == types.DeviceClassUnknown {
		d.Class = raw.Class
	}
	if len(raw.Capabilities) > 0 {
		d.Capabilities = d.Capabilities.Union(types.NewCapabilitySet(raw.Capabilities...))
	}

	set := func(k, v string) { d.Attributes[k] = types.Attribute{Value: v, Transport: t, UpdatedAt: ts} }
	for k, v := range raw.Attributes {
		set(k, v)
	}
	set(types.AttrLastSeenTransport, t.String())
	set(types.AttrUpdateTimestamp, strconv.FormatInt(ts.UnixMilli(), 10))

	if hint := raw.SignalHint; hint != nil && c.acceptSignal(e.signal, *hint) {
		e.signal = copyInt(hint)
		set(types.AttrRSSI, strconv.Itoa(*hint))
	}
	if raw.BatteryHint != nil {
		e.battery = copyInt(raw.BatteryHint)
		set(types.AttrBatteryLevel, strconv.Itoa(*raw.BatteryHint))
	}

	d.QualityScore = quality.DeviceScore(quality.DeviceInputs{
		Transports: d.Transports,
		SignalDBm:  c.signalOf(e),
		Age:        now.Sub(d.LastSeen),
		Battery:    e.battery,
	})
}

// acceptSignal 信号变化不小于滞回值时才替换已记录的样本
func (c *Coordinator) acceptSignal(stored *int, next int) bool {
	if stored == nil || c.config.SignalHysteresis == 0 {
		return true
	}
	diff := next - *stored
	if diff < 0 {
		diff = -diff
	}
	return diff >= c.config.SignalHysteresis
}

func (c *Coordinator) signalOf(e *entry) int {
	if e.signal != nil {
		return *e.signal
	}
	return c.config.DefaultSignal
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ============================================================================
//                              查询
// ============================================================================

// Devices 返回所有设备的快照，按质量评分降序
func (c *Coordinator) Devices() []types.UnifiedDevice {
	c.mu.Lock()
	out := make([]types.UnifiedDevice, 0, c.cache.Len())
	for _, e := range c.cache.Values() {
		out = append(out, e.device.Clone())
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QualityScore != out[j].QualityScore {
			return out[i].QualityScore > out[j].QualityScore
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Device 返回指定设备的快照
func (c *Coordinator) Device(id string) (types.UnifiedDevice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache.Peek(id)
	if !ok {
		return types.UnifiedDevice{}, false
	}
	return e.device.Clone(), true
}

// ClearDevices 清空设备列表
func (c *Coordinator) ClearDevices() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
	c.metrics.SetDevices(0)
}
