package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "discovery": {"ble_enabled": false},
//	  "connection": {"max_connections": 5, "connection_timeout": "10s"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置
//
// ${VAR} 形式的环境变量会先被展开。
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// LoadFile 按扩展名加载 JSON 或 YAML 配置文件并验证
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cfg, err = FromJSON(data)
	default:
		cfg, err = FromYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "mobile": 移动端，省电
//   - "desktop": 桌面端默认
//   - "server": 无无线硬件的常驻节点
//   - "minimal": 仅局域网，无自动切换与重连
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "mobile":
		applyMobilePreset(cfg)
	case "desktop", "":
	case "server":
		applyServerPreset(cfg)
	case "minimal":
		applyMinimalPreset(cfg)
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}

// applyMobilePreset 移动端：更少的连接与设备，更长的采样与查询间隔
func applyMobilePreset(cfg *Config) {
	cfg.Discovery.MaxDevices = 10
	cfg.Discovery.RadioSecondaryDelay = Duration(10 * time.Second)
	cfg.Connection.MaxConnections = 5
	cfg.Quality.MonitorInterval = Duration(10 * time.Second)
	cfg.LAN.QueryInterval = Duration(20 * time.Second)
	cfg.LAN.DeviceClass = "phone"
}

// applyServerPreset 服务器：关闭无线，放大容量
func applyServerPreset(cfg *Config) {
	cfg.Discovery.BLEEnabled = false
	cfg.Discovery.MaxDevices = 200
	cfg.Discovery.DiscoveryTimeout = Duration(2 * time.Minute)
	cfg.Connection.MaxConnections = 50
	cfg.LAN.Advertise = true
}

// applyMinimalPreset 最小配置
func applyMinimalPreset(cfg *Config) {
	cfg.Discovery.BLEEnabled = false
	cfg.Discovery.EnableSmartSwitching = false
	cfg.Connection.EnableAutoSwitch = false
	cfg.Connection.MaxConnections = 2
	cfg.Reconnect.Enabled = false
	cfg.Metrics.Enabled = false
}

// NewMobileConfig 创建移动端配置
func NewMobileConfig() *Config {
	cfg := NewConfig()
	applyMobilePreset(cfg)
	return cfg
}

// NewServerConfig 创建服务器配置
func NewServerConfig() *Config {
	cfg := NewConfig()
	applyServerPreset(cfg)
	return cfg
}

// NewMinimalConfig 创建最小配置
func NewMinimalConfig() *Config {
	cfg := NewConfig()
	applyMinimalPreset(cfg)
	return cfg
}

// CloneConfig 克隆配置
//
// 所有子配置均为值类型，浅拷贝即为深拷贝。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	return &cloned
}
