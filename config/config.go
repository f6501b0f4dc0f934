// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON / YAML 加载配置
//   - 支持预设配置（mobile/desktop/server/minimal）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Connection.SwitchThreshold = 0.5
//
//	// 应用预设到现有配置
//	config.ApplyPreset(cfg, "mobile")
//
//	// 从文件加载
//	cfg, err := config.LoadFile("nearlink.yaml")
package config

// Config 是 nearlink 的完整配置结构
//
// 配置按照功能模块组织：
//   - Discovery: 设备发现与合并
//   - Connection: 连接协调与通道切换
//   - Quality: 连接质量监控
//   - Reconnect: 重连退避
//   - LAN / Radio: 通道原语
//   - Reachability: 网络可达性轮询
type Config struct {
	// Discovery 设备发现配置
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Connection 连接协调配置
	Connection ConnectionConfig `json:"connection" yaml:"connection"`

	// Quality 连接质量监控配置
	Quality QualityConfig `json:"quality" yaml:"quality"`

	// Reconnect 重连配置
	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect"`

	// LAN 局域网通道配置
	LAN LANConfig `json:"lan" yaml:"lan"`

	// Radio 无线通道配置
	Radio RadioConfig `json:"radio" yaml:"radio"`

	// Reachability 网络可达性配置
	Reachability ReachabilityConfig `json:"reachability" yaml:"reachability"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Discovery:    DefaultDiscoveryConfig(),
		Connection:   DefaultConnectionConfig(),
		Quality:      DefaultQualityConfig(),
		Reconnect:    DefaultReconnectConfig(),
		LAN:          DefaultLANConfig(),
		Radio:        DefaultRadioConfig(),
		Reachability: DefaultReachabilityConfig(),
		Log:          DefaultLogConfig(),
		Metrics:      DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if err := c.Quality.Validate(); err != nil {
		return err
	}
	if err := c.Reconnect.Validate(); err != nil {
		return err
	}
	if err := c.LAN.Validate(); err != nil {
		return err
	}
	if err := c.Reachability.Validate(); err != nil {
		return err
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别描述，语法同 NEARLINK_LOG_LEVEL
	// 默认值: "info"
	Level string `json:"level" yaml:"level"`

	// Format text 或 json
	// 默认值: "text"
	Format string `json:"format" yaml:"format"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否注册 Prometheus 指标
	// 默认值: true
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace 指标命名空间
	// 默认值: "nearlink"
	Namespace string `json:"namespace" yaml:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enabled: true, Namespace: "nearlink"}
}
