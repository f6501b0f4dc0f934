package lan

import (
	"io"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-nearlink/config"
)

// Config 局域网通道配置
type Config struct {
	// DialTimeout TCP 拨号超时
	DialTimeout time.Duration

	// KeepAliveInterval 会话保活间隔
	KeepAliveInterval time.Duration

	// ProbeCount 每次质量采样的 Ping 次数
	ProbeCount int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		DialTimeout:       15 * time.Second,
		KeepAliveInterval: 5 * time.Second,
		ProbeCount:        3,
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = def.KeepAliveInterval
	}
	if c.ProbeCount < 1 {
		c.ProbeCount = def.ProbeCount
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ConfigFromUnified 从统一配置创建局域网通道配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		DialTimeout:       cfg.Connection.ConnectionTimeout.Duration(),
		KeepAliveInterval: cfg.Quality.PingInterval.Duration(),
		ProbeCount:        cfg.Quality.ProbeCount,
	}
}

// yamuxConfig 返回会话配置
func (c *Config) yamuxConfig() *yamux.Config {
	y := yamux.DefaultConfig()
	y.EnableKeepAlive = true
	y.KeepAliveInterval = c.KeepAliveInterval
	y.ConnectionWriteTimeout = c.DialTimeout
	y.LogOutput = io.Discard
	return y
}
