package connmgr

import (
	"time"

	"github.com/dep2p/go-nearlink/config"
)

// Config 连接协调器配置
type Config struct {
	// MaxConnections 连接池容量
	MaxConnections int

	// ConnectionTimeout 单个通道的连接超时
	ConnectionTimeout time.Duration

	// SwitchThreshold 质量低于该值时尝试切换通道
	SwitchThreshold float64

	// EnableAutoSwitch 是否根据质量与网络变化自动切换
	EnableAutoSwitch bool

	// KeepQualityThreshold 已有连接质量高于该值时保持当前通道
	KeepQualityThreshold float64

	// AdvantageThreshold 网络恢复时切回局域网所需的通道优势
	AdvantageThreshold float64

	// SwitchSettleDelay 切换时断开与重连之间的等待
	SwitchSettleDelay time.Duration

	// MaxSwitchesPerMinute 每分钟最多切换次数，0 表示不限
	MaxSwitchesPerMinute int

	// AutoReconnect 连接失败后是否安排重连
	AutoReconnect bool

	// EventBuffer 事件订阅默认缓冲
	EventBuffer int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:       10,
		ConnectionTimeout:    15 * time.Second,
		SwitchThreshold:      0.6,
		EnableAutoSwitch:     true,
		KeepQualityThreshold: 0.8,
		AdvantageThreshold:   0.7,
		SwitchSettleDelay:    time.Second,
		MaxSwitchesPerMinute: 6,
		AutoReconnect:        true,
		EventBuffer:          64,
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.MaxConnections <= 0 {
		c.MaxConnections = def.MaxConnections
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = def.ConnectionTimeout
	}
	if c.SwitchThreshold < 0 || c.SwitchThreshold > 1 {
		c.SwitchThreshold = def.SwitchThreshold
	}
	if c.KeepQualityThreshold < 0 || c.KeepQualityThreshold > 1 {
		c.KeepQualityThreshold = def.KeepQualityThreshold
	}
	if c.AdvantageThreshold < 0 || c.AdvantageThreshold > 1 {
		c.AdvantageThreshold = def.AdvantageThreshold
	}
	if c.SwitchSettleDelay < 0 {
		c.SwitchSettleDelay = 0
	}
	if c.MaxSwitchesPerMinute < 0 {
		c.MaxSwitchesPerMinute = 0
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = def.EventBuffer
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ConfigFromUnified 从统一配置创建协调器配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	c := cfg.Connection
	return &Config{
		MaxConnections:       c.MaxConnections,
		ConnectionTimeout:    c.ConnectionTimeout.Duration(),
		SwitchThreshold:      c.SwitchThreshold,
		EnableAutoSwitch:     c.EnableAutoSwitch,
		KeepQualityThreshold: c.KeepQualityThreshold,
		AdvantageThreshold:   c.AdvantageThreshold,
		SwitchSettleDelay:    c.SwitchSettleDelay.Duration(),
		MaxSwitchesPerMinute: c.MaxSwitchesPerMinute,
		AutoReconnect:        cfg.Reconnect.Enabled,
		EventBuffer:          c.EventBuffer,
	}
}
