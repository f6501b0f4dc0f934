// Package types 定义 nearlink 公共类型
//
// 本文件定义设备相关类型。
package types

import (
	"time"
)

// 常用属性键
const (
	AttrRSSI                = "rssi"
	AttrBatteryLevel        = "battery_level"
	AttrConnectionType      = "connection_type"
	AttrDiscoveredTransport = "discovered_transport"
	AttrInitialTimestamp    = "initial_timestamp"
	AttrLastSeenTransport   = "last_seen_transport"
	AttrUpdateTimestamp     = "update_timestamp"
)

// ============================================================================
//                              Attribute - 设备属性
// ============================================================================

// Attribute 带通道标记的属性值
type Attribute struct {
	// Value 属性值
	Value string

	// Transport 提供该值的通道
	Transport Transport

	// UpdatedAt 更新时间
	UpdatedAt time.Time
}

// ============================================================================
//                              UnifiedDevice - 合并后的设备记录
// ============================================================================

// UnifiedDevice 跨通道合并的设备记录
//
// 同一 ID 的 Transports 只增不减；QualityScore 由评分器计算，不可手工设置。
type UnifiedDevice struct {
	// ID 稳定的合并键
	ID string

	// DisplayName 显示名称
	DisplayName string

	// Class 设备类别
	Class DeviceClass

	// Capabilities 设备能力
	Capabilities CapabilitySet

	// Transports 已发现该设备的通道集合
	Transports TransportSet

	// Endpoints 各通道的本地标识（radio: MAC，lan: host:port）
	Endpoints map[Transport]string

	// QualityScore 质量评分 [0,1]
	QualityScore float64

	// LastSeen 最后一次被发现的时间
	LastSeen time.Time

	// Attributes 属性表
	Attributes map[string]Attribute
}

// Endpoint 返回通道 t 上的本地标识
func (d *UnifiedDevice) Endpoint(t Transport) string {
	if d == nil || d.Endpoints == nil {
		return ""
	}
	return d.Endpoints[t]
}

// Attr 返回属性值
func (d *UnifiedDevice) Attr(key string) (string, bool) {
	if d == nil || d.Attributes == nil {
		return "", false
	}
	a, ok := d.Attributes[key]
	return a.Value, ok
}

// Clone 深拷贝
func (d *UnifiedDevice) Clone() UnifiedDevice {
	if d == nil {
		return UnifiedDevice{}
	}
	out := *d
	out.Capabilities = d.Capabilities.Union(nil)
	out.Endpoints = make(map[Transport]string, len(d.Endpoints))
	for k, v := range d.Endpoints {
		out.Endpoints[k] = v
	}
	out.Attributes = make(map[string]Attribute, len(d.Attributes))
	for k, v := range d.Attributes {
		out.Attributes[k] = v
	}
	return out
}

// ============================================================================
//                              RawSighting - 单通道发现事件
// ============================================================================

// RawSighting 扫描器上报的单次发现
type RawSighting struct {
	// TransportLocalID 通道内标识（MAC 地址、host:port）
	TransportLocalID string

	// DeviceID 对端广播的稳定 ID，为空时使用 TransportLocalID
	DeviceID string

	// Name 设备名称
	Name string

	// Class 设备类别
	Class DeviceClass

	// Capabilities 设备能力
	Capabilities []Capability

	// SignalHint 信号强度（dBm），nil 表示不可用
	SignalHint *int

	// BatteryHint 电量百分比，nil 表示不可用
	BatteryHint *int

	// Attributes 附加属性
	Attributes map[string]string

	// Timestamp 发现时间
	Timestamp time.Time
}

// MergeKey 返回合并键
func (s *RawSighting) MergeKey() string {
	if s.DeviceID != "" {
		return s.DeviceID
	}
	return s.TransportLocalID
}

// IntPtr 返回 v 的指针
func IntPtr(v int) *int {
	return &v
}
