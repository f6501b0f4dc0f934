package quality

import (
	"time"
)

// Config 质量监控配置
type Config struct {
	// Interval 采样间隔
	Interval time.Duration

	// ProbeTimeout 单次采样超时，0 表示与 Interval 相同
	ProbeTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Interval: 5 * time.Second,
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.ProbeTimeout <= 0 || c.ProbeTimeout > c.Interval {
		c.ProbeTimeout = c.Interval
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
