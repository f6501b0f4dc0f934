package reachability

import (
	"time"

	"github.com/dep2p/go-nearlink/config"
)

// Config 可达性轮询配置
type Config struct {
	// PollInterval 网卡状态轮询间隔
	// 默认值: 5s
	PollInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{PollInterval: 5 * time.Second}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	return nil
}

// ConfigFromUnified 从统一配置创建可达性配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{PollInterval: cfg.Reachability.PollInterval.Duration()}
}
