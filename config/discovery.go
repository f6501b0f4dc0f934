package config

import (
	"fmt"
	"time"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// DiscoveryConfig 设备发现配置
type DiscoveryConfig struct {
	// WiFiEnabled 是否启用局域网扫描
	// 默认值: true
	WiFiEnabled bool `json:"wifi_enabled" yaml:"wifi_enabled"`

	// BLEEnabled 是否启用无线扫描
	// 默认值: true
	BLEEnabled bool `json:"ble_enabled" yaml:"ble_enabled"`

	// Primary 双通道可用时的主通道，"lan" 或 "radio"
	// 默认值: "lan"
	Primary string `json:"primary" yaml:"primary"`

	// MaxDevices 设备缓存容量
	// 默认值: 20
	MaxDevices int `json:"max_devices" yaml:"max_devices"`

	// DiscoveryTimeout 设备未再出现多久后可被容量淘汰
	// 默认值: 30s
	DiscoveryTimeout Duration `json:"discovery_timeout" yaml:"discovery_timeout"`

	// RadioSecondaryDelay 局域网为主时无线扫描的延迟
	// 默认值: 5s
	RadioSecondaryDelay Duration `json:"radio_secondary_delay" yaml:"radio_secondary_delay"`

	// LANSecondaryDelay 无线为主时局域网扫描的延迟
	// 默认值: 3s
	LANSecondaryDelay Duration `json:"lan_secondary_delay" yaml:"lan_secondary_delay"`

	// SignalHysteresis 信号变化小于该值（dBm）时不替换已记录的信号
	// 0 表示禁用
	// 默认值: 5
	SignalHysteresis int `json:"signal_hysteresis" yaml:"signal_hysteresis"`

	// DefaultSignal 无信号提示时使用的信号强度（dBm）
	// 默认值: -50
	DefaultSignal int `json:"default_signal" yaml:"default_signal"`

	// EnableSmartSwitching 网络变化时是否重新选择发现策略
	// 默认值: true
	EnableSmartSwitching bool `json:"enable_smart_switching" yaml:"enable_smart_switching"`

	// StreamBuffer 设备流缓冲大小
	// 默认值: 64
	StreamBuffer int `json:"stream_buffer" yaml:"stream_buffer"`
}

// DefaultDiscoveryConfig 返回默认发现配置
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		WiFiEnabled:          true,
		BLEEnabled:           true,
		Primary:              "lan",
		MaxDevices:           20,
		DiscoveryTimeout:     Duration(30 * time.Second),
		RadioSecondaryDelay:  Duration(5 * time.Second),
		LANSecondaryDelay:    Duration(3 * time.Second),
		SignalHysteresis:     5,
		DefaultSignal:        -50,
		EnableSmartSwitching: true,
		StreamBuffer:         64,
	}
}

// PrimaryTransport 返回主通道
func (c *DiscoveryConfig) PrimaryTransport() types.Transport {
	if types.ParseTransport(c.Primary) == types.TransportRadio {
		return types.TransportRadio
	}
	return types.TransportLAN
}

// Validate 验证发现配置
func (c *DiscoveryConfig) Validate() error {
	if c.MaxDevices < 1 {
		return fmt.Errorf("discovery: max_devices must be >= 1")
	}
	if c.DiscoveryTimeout < 0 {
		return fmt.Errorf("discovery: discovery_timeout must be >= 0")
	}
	if c.SignalHysteresis < 0 {
		return fmt.Errorf("discovery: signal_hysteresis must be >= 0")
	}
	if c.Primary != "" && types.ParseTransport(c.Primary) == types.TransportUnknown {
		return fmt.Errorf("discovery: unknown primary transport %q", c.Primary)
	}
	return nil
}
