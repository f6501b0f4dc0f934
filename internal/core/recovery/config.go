// Package recovery 提供断线重连调度
package recovery

import (
	"time"
)

// ============================================================================
//                              重连配置
// ============================================================================

// Config 重连调度器配置
type Config struct {
	// MaxAttempts 最大重连次数，0 表示不重连
	// 默认值: 3
	MaxAttempts int

	// BaseDelay 初始退避时间
	// 默认值: 1s
	BaseDelay time.Duration

	// MaxDelay 最大退避时间
	// 默认值: 30s
	MaxDelay time.Duration

	// BackoffFactor 退避因子
	// 默认值: 2.0
	BackoffFactor float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	if c.MaxAttempts < 0 {
		c.MaxAttempts = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1 * time.Second
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.BackoffFactor < 1.0 {
		c.BackoffFactor = 2.0
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Delay 返回第 attempt 次（从 0 开始）重连前的等待时间
func (c *Config) Delay(attempt int) time.Duration {
	d := float64(c.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= c.BackoffFactor
		if d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}
