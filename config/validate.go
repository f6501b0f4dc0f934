package config

import (
	"errors"
)

// ValidateAll 验证整个配置的有效性
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复常见问题
//
// 可修复的问题：
//   - 数值为零或负 -> 使用默认值
//   - 阈值越界 -> 截断到 [0,1]
//   - 最大退避小于基础退避 -> 交换
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	d := NewConfig()

	if c.Discovery.MaxDevices < 1 {
		c.Discovery.MaxDevices = d.Discovery.MaxDevices
	}
	if c.Discovery.StreamBuffer < 1 {
		c.Discovery.StreamBuffer = d.Discovery.StreamBuffer
	}
	if c.Discovery.SignalHysteresis < 0 {
		c.Discovery.SignalHysteresis = 0
	}

	if c.Connection.MaxConnections < 1 {
		c.Connection.MaxConnections = d.Connection.MaxConnections
	}
	if c.Connection.ConnectionTimeout <= 0 {
		c.Connection.ConnectionTimeout = d.Connection.ConnectionTimeout
	}
	c.Connection.SwitchThreshold = clamp01(c.Connection.SwitchThreshold)
	c.Connection.KeepQualityThreshold = clamp01(c.Connection.KeepQualityThreshold)
	c.Connection.AdvantageThreshold = clamp01(c.Connection.AdvantageThreshold)
	if c.Connection.EventBuffer < 1 {
		c.Connection.EventBuffer = d.Connection.EventBuffer
	}

	if c.Quality.MonitorInterval <= 0 {
		c.Quality.MonitorInterval = d.Quality.MonitorInterval
	}
	if c.Quality.ProbeCount < 1 {
		c.Quality.ProbeCount = d.Quality.ProbeCount
	}

	if c.Reconnect.BaseDelay <= 0 {
		c.Reconnect.BaseDelay = d.Reconnect.BaseDelay
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		c.Reconnect.MaxDelay, c.Reconnect.BaseDelay = c.Reconnect.BaseDelay, c.Reconnect.MaxDelay
		if c.Reconnect.BaseDelay <= 0 {
			c.Reconnect.BaseDelay = d.Reconnect.BaseDelay
		}
	}
	if c.Reconnect.BackoffFactor < 1 {
		c.Reconnect.BackoffFactor = d.Reconnect.BackoffFactor
	}

	if c.LAN.ServiceTag == "" {
		c.LAN.ServiceTag = d.LAN.ServiceTag
	}
	if c.LAN.QueryInterval <= 0 {
		c.LAN.QueryInterval = d.LAN.QueryInterval
	}
	if c.Reachability.PollInterval <= 0 {
		c.Reachability.PollInterval = d.Reachability.PollInterval
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
