package config

import (
	"fmt"
	"time"
)

// ConnectionConfig 连接协调配置
type ConnectionConfig struct {
	// MaxConnections 连接池容量
	// 默认值: 10
	MaxConnections int `json:"max_connections" yaml:"max_connections"`

	// ConnectionTimeout 单次连接超时，对所有通道一致生效
	// 默认值: 15s
	ConnectionTimeout Duration `json:"connection_timeout" yaml:"connection_timeout"`

	// SwitchThreshold 低于该质量评分时尝试切换通道
	// 默认值: 0.6
	SwitchThreshold float64 `json:"switch_threshold" yaml:"switch_threshold"`

	// EnableAutoSwitch 是否自动切换通道
	// 默认值: true
	EnableAutoSwitch bool `json:"enable_auto_switch" yaml:"enable_auto_switch"`

	// KeepQualityThreshold 已有连接质量高于该值时保持当前通道
	// 默认值: 0.8
	KeepQualityThreshold float64 `json:"keep_quality_threshold" yaml:"keep_quality_threshold"`

	// AdvantageThreshold 网络恢复时切回局域网所需的通道优势
	// 默认值: 0.7
	AdvantageThreshold float64 `json:"advantage_threshold" yaml:"advantage_threshold"`

	// SwitchSettleDelay 切换时断开与重连之间的等待
	// 默认值: 1s
	SwitchSettleDelay Duration `json:"switch_settle_delay" yaml:"switch_settle_delay"`

	// MaxSwitchesPerMinute 每分钟最多切换次数，0 表示不限
	// 默认值: 6
	MaxSwitchesPerMinute int `json:"max_switches_per_minute" yaml:"max_switches_per_minute"`

	// EventBuffer 连接事件订阅缓冲
	// 默认值: 64
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`
}

// DefaultConnectionConfig 返回默认连接配置
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnections:       10,
		ConnectionTimeout:    Duration(15 * time.Second),
		SwitchThreshold:      0.6,
		EnableAutoSwitch:     true,
		KeepQualityThreshold: 0.8,
		AdvantageThreshold:   0.7,
		SwitchSettleDelay:    Duration(1 * time.Second),
		MaxSwitchesPerMinute: 6,
		EventBuffer:          64,
	}
}

// Validate 验证连接配置
func (c *ConnectionConfig) Validate() error {
	if c.MaxConnections < 1 {
		return fmt.Errorf("connection: max_connections must be >= 1")
	}
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("connection: connection_timeout must be > 0")
	}
	if c.SwitchThreshold < 0 || c.SwitchThreshold > 1 {
		return fmt.Errorf("connection: switch_threshold must be within [0,1]")
	}
	if c.KeepQualityThreshold < 0 || c.KeepQualityThreshold > 1 {
		return fmt.Errorf("connection: keep_quality_threshold must be within [0,1]")
	}
	if c.MaxSwitchesPerMinute < 0 {
		return fmt.Errorf("connection: max_switches_per_minute must be >= 0")
	}
	return nil
}

// QualityConfig 连接质量监控配置
type QualityConfig struct {
	// MonitorInterval 采样间隔
	// 默认值: 5s
	MonitorInterval Duration `json:"monitor_interval" yaml:"monitor_interval"`

	// PingInterval 局域网会话保活间隔
	// 默认值: 5s
	PingInterval Duration `json:"ping_interval" yaml:"ping_interval"`

	// ProbeCount 每次采样的探测次数
	// 默认值: 3
	ProbeCount int `json:"probe_count" yaml:"probe_count"`
}

// DefaultQualityConfig 返回默认质量监控配置
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MonitorInterval: Duration(5 * time.Second),
		PingInterval:    Duration(5 * time.Second),
		ProbeCount:      3,
	}
}

// Validate 验证质量监控配置
func (c *QualityConfig) Validate() error {
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("quality: monitor_interval must be > 0")
	}
	if c.ProbeCount < 1 {
		return fmt.Errorf("quality: probe_count must be >= 1")
	}
	return nil
}
