package config

import (
	"fmt"
	"time"
)

// LANConfig 局域网通道配置
type LANConfig struct {
	// ServiceTag mDNS 服务类型
	// 默认值: "_nearlink._tcp"
	ServiceTag string `json:"service_tag" yaml:"service_tag"`

	// Domain mDNS 域
	// 默认值: "local"
	Domain string `json:"domain" yaml:"domain"`

	// QueryInterval mDNS 查询间隔
	// 默认值: 10s
	QueryInterval Duration `json:"query_interval" yaml:"query_interval"`

	// QueryTimeout 单次查询等待应答的时间
	// 默认值: 3s
	QueryTimeout Duration `json:"query_timeout" yaml:"query_timeout"`

	// DisableIPv6 查询时禁用 IPv6
	DisableIPv6 bool `json:"disable_ipv6" yaml:"disable_ipv6"`

	// Advertise 是否广播本机服务
	// 默认值: false
	Advertise bool `json:"advertise" yaml:"advertise"`

	// AdvertisePort 广播的服务端口
	// 默认值: 47100
	AdvertisePort int `json:"advertise_port" yaml:"advertise_port"`

	// DeviceID 本机设备 ID（广播时使用）
	DeviceID string `json:"device_id" yaml:"device_id"`

	// DeviceName 本机设备名（广播时使用）
	DeviceName string `json:"device_name" yaml:"device_name"`

	// DeviceClass 本机设备类别（广播时使用）
	// 默认值: "desktop"
	DeviceClass string `json:"device_class" yaml:"device_class"`
}

// DefaultLANConfig 返回默认局域网配置
func DefaultLANConfig() LANConfig {
	return LANConfig{
		ServiceTag:    "_nearlink._tcp",
		Domain:        "local",
		QueryInterval: Duration(10 * time.Second),
		QueryTimeout:  Duration(3 * time.Second),
		AdvertisePort: 47100,
		DeviceClass:   "desktop",
	}
}

// Validate 验证局域网配置
func (c *LANConfig) Validate() error {
	if c.ServiceTag == "" {
		return fmt.Errorf("lan: service_tag is empty")
	}
	if c.QueryInterval <= 0 {
		return fmt.Errorf("lan: query_interval must be > 0")
	}
	if c.Advertise && (c.AdvertisePort <= 0 || c.AdvertisePort > 65535) {
		return fmt.Errorf("lan: advertise_port out of range")
	}
	return nil
}

// RadioConfig 无线通道配置
type RadioConfig struct {
	// AdapterID 适配器标识
	// 默认值: "hci0"
	AdapterID string `json:"adapter_id" yaml:"adapter_id"`

	// NamePrefix 仅上报名称以该前缀开头的广播，空表示全部
	NamePrefix string `json:"name_prefix" yaml:"name_prefix"`
}

// DefaultRadioConfig 返回默认无线配置
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{AdapterID: "hci0"}
}

// ReachabilityConfig 网络可达性配置
type ReachabilityConfig struct {
	// PollInterval 网卡状态轮询间隔
	// 默认值: 5s
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval"`
}

// DefaultReachabilityConfig 返回默认可达性配置
func DefaultReachabilityConfig() ReachabilityConfig {
	return ReachabilityConfig{PollInterval: Duration(5 * time.Second)}
}

// Validate 验证可达性配置
func (c *ReachabilityConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("reachability: poll_interval must be > 0")
	}
	return nil
}
