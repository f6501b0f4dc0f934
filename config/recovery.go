// Package config 提供统一的配置管理
package config

import (
	"fmt"
	"time"
)

// ReconnectConfig 重连配置
//
// 连接失败后按指数退避重试：delay = min(BaseDelay * BackoffFactor^attempt, MaxDelay)。
type ReconnectConfig struct {
	// Enabled 是否启用自动重连
	// 默认值: true
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ReconnectAttempts 最大重连次数
	// 默认值: 3
	ReconnectAttempts int `json:"reconnect_attempts" yaml:"reconnect_attempts"`

	// BaseDelay 退避基础时间
	// 默认值: 1s
	BaseDelay Duration `json:"base_delay" yaml:"base_delay"`

	// MaxDelay 最大退避时间
	// 默认值: 30s
	MaxDelay Duration `json:"max_delay" yaml:"max_delay"`

	// BackoffFactor 退避倍数
	// 默认值: 2.0
	BackoffFactor float64 `json:"backoff_factor" yaml:"backoff_factor"`
}

// DefaultReconnectConfig 返回默认重连配置
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enabled:           true,
		ReconnectAttempts: 3,
		BaseDelay:         Duration(1 * time.Second),
		MaxDelay:          Duration(30 * time.Second),
		BackoffFactor:     2.0,
	}
}

// Validate 验证重连配置
func (c *ReconnectConfig) Validate() error {
	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect: reconnect_attempts must be >= 0")
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("reconnect: base_delay must be > 0")
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("reconnect: max_delay must be >= base_delay")
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("reconnect: backoff_factor must be >= 1")
	}
	return nil
}
