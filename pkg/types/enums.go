package types

import (
	"sort"
	"strings"
)

// ============================================================================
//                              Transport - 传输通道
// ============================================================================

// Transport 传输通道类型
type Transport int

const (
	// TransportUnknown 未知通道
	TransportUnknown Transport = iota
	// TransportLAN 局域网通道
	TransportLAN
	// TransportRadio 近距离无线通道
	TransportRadio
)

// AllTransports 按偏好顺序列出所有通道
var AllTransports = []Transport{TransportLAN, TransportRadio}

// String 返回通道的字符串表示
func (t Transport) String() string {
	switch t {
	case TransportLAN:
		return "lan"
	case TransportRadio:
		return "radio"
	default:
		return "unknown"
	}
}

// ParseTransport 解析通道名称
//
// 兼容 "wifi"/"ble" 旧名称。
func ParseTransport(s string) Transport {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lan", "wifi":
		return TransportLAN
	case "radio", "ble", "bluetooth":
		return TransportRadio
	default:
		return TransportUnknown
	}
}

// Other 返回另一个通道
func (t Transport) Other() Transport {
	switch t {
	case TransportLAN:
		return TransportRadio
	case TransportRadio:
		return TransportLAN
	default:
		return TransportUnknown
	}
}

// ============================================================================
//                              TransportSet - 通道集合
// ============================================================================

// TransportSet 通道集合（位图）
//
// 零值为空集合。
type TransportSet uint8

// NewTransportSet 从通道列表创建集合
func NewTransportSet(ts ...Transport) TransportSet {
	var s TransportSet
	for _, t := range ts {
		s = s.With(t)
	}
	return s
}

// With 返回加入 t 后的集合
func (s TransportSet) With(t Transport) TransportSet {
	if t == TransportUnknown {
		return s
	}
	return s | (1 << uint(t))
}

// Union 返回并集
func (s TransportSet) Union(o TransportSet) TransportSet {
	return s | o
}

// Has 是否包含 t
func (s TransportSet) Has(t Transport) bool {
	if t == TransportUnknown {
		return false
	}
	return s&(1<<uint(t)) != 0
}

// Len 返回集合大小
func (s TransportSet) Len() int {
	n := 0
	for _, t := range AllTransports {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// IsEmpty 是否为空
func (s TransportSet) IsEmpty() bool {
	return s.Len() == 0
}

// Slice 按偏好顺序返回集合中的通道
func (s TransportSet) Slice() []Transport {
	out := make([]Transport, 0, 2)
	for _, t := range AllTransports {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// String 返回集合的字符串表示
func (s TransportSet) String() string {
	parts := make([]string, 0, 2)
	for _, t := range s.Slice() {
		parts = append(parts, t.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ============================================================================
//                              DeviceClass - 设备类别
// ============================================================================

// DeviceClass 设备类别
type DeviceClass int

const (
	// DeviceClassUnknown 未知设备
	DeviceClassUnknown DeviceClass = iota
	// DeviceClassPhone 手机
	DeviceClassPhone
	// DeviceClassTablet 平板
	DeviceClassTablet
	// DeviceClassDesktop 台式机
	DeviceClassDesktop
	// DeviceClassLaptop 笔记本
	DeviceClassLaptop
	// DeviceClassWatch 手表
	DeviceClassWatch
	// DeviceClassTV 电视
	DeviceClassTV
)

// String 返回设备类别的字符串表示
func (c DeviceClass) String() string {
	switch c {
	case DeviceClassPhone:
		return "phone"
	case DeviceClassTablet:
		return "tablet"
	case DeviceClassDesktop:
		return "desktop"
	case DeviceClassLaptop:
		return "laptop"
	case DeviceClassWatch:
		return "watch"
	case DeviceClassTV:
		return "tv"
	default:
		return "unknown"
	}
}

// ParseDeviceClass 解析设备类别
func ParseDeviceClass(s string) DeviceClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phone":
		return DeviceClassPhone
	case "tablet":
		return DeviceClassTablet
	case "desktop":
		return DeviceClassDesktop
	case "laptop":
		return DeviceClassLaptop
	case "watch":
		return DeviceClassWatch
	case "tv":
		return DeviceClassTV
	default:
		return DeviceClassUnknown
	}
}

// ============================================================================
//                              Capability - 设备能力
// ============================================================================

// Capability 设备能力
type Capability int

const (
	// CapabilityClipboardSync 剪贴板同步
	CapabilityClipboardSync Capability = iota + 1
	// CapabilityFileTransfer 文件传输
	CapabilityFileTransfer
	// CapabilityScreenMirroring 屏幕镜像
	CapabilityScreenMirroring
	// CapabilityRemoteControl 远程控制
	CapabilityRemoteControl
)

// String 返回能力的字符串表示
func (c Capability) String() string {
	switch c {
	case CapabilityClipboardSync:
		return "clipboard_sync"
	case CapabilityFileTransfer:
		return "file_transfer"
	case CapabilityScreenMirroring:
		return "screen_mirroring"
	case CapabilityRemoteControl:
		return "remote_control"
	default:
		return "unknown"
	}
}

// ParseCapability 解析能力名称，未知名称返回 0
func ParseCapability(s string) Capability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clipboard_sync":
		return CapabilityClipboardSync
	case "file_transfer":
		return CapabilityFileTransfer
	case "screen_mirroring":
		return CapabilityScreenMirroring
	case "remote_control":
		return CapabilityRemoteControl
	default:
		return 0
	}
}

// CapabilitySet 能力集合
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet 创建能力集合
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		if c != 0 {
			s[c] = struct{}{}
		}
	}
	return s
}

// Has 是否包含能力 c
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Union 返回并集（不修改接收者）
func (s CapabilitySet) Union(o CapabilitySet) CapabilitySet {
	out := make(CapabilitySet, len(s)+len(o))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

// Slice 返回有序能力列表
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ============================================================================
//                              ConnectionState - 连接状态
// ============================================================================

// ConnectionState 设备连接状态
type ConnectionState int

const (
	// StateDisconnected 未连接
	StateDisconnected ConnectionState = iota
	// StateConnecting 连接中
	StateConnecting
	// StateConnected 已连接
	StateConnected
	// StateDisconnecting 断开中
	StateDisconnecting
	// StateFailed 失败（瞬态，随即回到 StateDisconnected）
	StateFailed
)

// String 返回状态的字符串表示
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// IsLive 是否为存活状态（非终态）
func (s ConnectionState) IsLive() bool {
	return s == StateConnecting || s == StateConnected || s == StateDisconnecting
}

// ============================================================================
//                              DiscoveryStrategy - 发现策略
// ============================================================================

// DiscoveryStrategy 发现策略
type DiscoveryStrategy int

const (
	// StrategyNone 不扫描
	StrategyNone DiscoveryStrategy = iota
	// StrategyLANOnly 仅局域网
	StrategyLANOnly
	// StrategyRadioOnly 仅无线
	StrategyRadioOnly
	// StrategyLANPrimaryRadioSecondary 局域网为主，无线延迟启动
	StrategyLANPrimaryRadioSecondary
	// StrategyRadioPrimaryLANSecondary 无线为主，局域网延迟启动
	StrategyRadioPrimaryLANSecondary
)

// String 返回策略的字符串表示
func (s DiscoveryStrategy) String() string {
	switch s {
	case StrategyLANOnly:
		return "lan_only"
	case StrategyRadioOnly:
		return "radio_only"
	case StrategyLANPrimaryRadioSecondary:
		return "lan_primary_radio_secondary"
	case StrategyRadioPrimaryLANSecondary:
		return "radio_primary_lan_secondary"
	default:
		return "none"
	}
}

// Primary 返回主通道
func (s DiscoveryStrategy) Primary() Transport {
	switch s {
	case StrategyLANOnly, StrategyLANPrimaryRadioSecondary:
		return TransportLAN
	case StrategyRadioOnly, StrategyRadioPrimaryLANSecondary:
		return TransportRadio
	default:
		return TransportUnknown
	}
}

// Secondary 返回延迟启动的次通道
func (s DiscoveryStrategy) Secondary() Transport {
	switch s {
	case StrategyLANPrimaryRadioSecondary:
		return TransportRadio
	case StrategyRadioPrimaryLANSecondary:
		return TransportLAN
	default:
		return TransportUnknown
	}
}

// ============================================================================
//                              SwitchReason - 切换原因
// ============================================================================

// SwitchReason 通道切换原因
type SwitchReason int

const (
	// SwitchReasonUnknown 未知原因
	SwitchReasonUnknown SwitchReason = iota
	// SwitchReasonQualityDegraded 连接质量下降
	SwitchReasonQualityDegraded
	// SwitchReasonNetworkLost 网络丢失
	SwitchReasonNetworkLost
	// SwitchReasonNetworkRecovered 网络恢复
	SwitchReasonNetworkRecovered
	// SwitchReasonManual 手动切换
	SwitchReasonManual
)

// String 返回原因的字符串表示
func (r SwitchReason) String() string {
	switch r {
	case SwitchReasonQualityDegraded:
		return "quality_degraded"
	case SwitchReasonNetworkLost:
		return "network_lost"
	case SwitchReasonNetworkRecovered:
		return "network_recovered"
	case SwitchReasonManual:
		return "manual"
	default:
		return "unknown"
	}
}
