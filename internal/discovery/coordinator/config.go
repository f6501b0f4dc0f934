package coordinator

import (
	"time"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// Config 发现协调器配置
type Config struct {
	// LANEnabled 是否启用局域网扫描
	LANEnabled bool

	// RadioEnabled 是否启用无线扫描
	RadioEnabled bool

	// Primary 双通道可用时的主通道
	Primary types.Transport

	// MaxDevices 设备缓存容量
	MaxDevices int

	// DiscoveryTimeout 设备未再出现多久后可被容量淘汰
	DiscoveryTimeout time.Duration

	// RadioSecondaryDelay 无线作为次通道时的启动延迟
	RadioSecondaryDelay time.Duration

	// LANSecondaryDelay 局域网作为次通道时的启动延迟
	LANSecondaryDelay time.Duration

	// SignalHysteresis 信号滞回（dBm），0 表示禁用
	SignalHysteresis int

	// DefaultSignal 无信号提示时的信号强度
	DefaultSignal int

	// EnableSmartSwitching 网络变化时重新选择策略
	EnableSmartSwitching bool

	// StreamBuffer 设备流缓冲
	StreamBuffer int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LANEnabled:           true,
		RadioEnabled:         true,
		Primary:              types.TransportLAN,
		MaxDevices:           20,
		DiscoveryTimeout:     30 * time.Second,
		RadioSecondaryDelay:  5 * time.Second,
		LANSecondaryDelay:    3 * time.Second,
		SignalHysteresis:     5,
		DefaultSignal:        -50,
		EnableSmartSwitching: true,
		StreamBuffer:         64,
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Primary != types.TransportRadio {
		c.Primary = types.TransportLAN
	}
	if c.MaxDevices < 1 {
		c.MaxDevices = def.MaxDevices
	}
	if c.DiscoveryTimeout < 0 {
		c.DiscoveryTimeout = def.DiscoveryTimeout
	}
	if c.RadioSecondaryDelay < 0 {
		c.RadioSecondaryDelay = 0
	}
	if c.LANSecondaryDelay < 0 {
		c.LANSecondaryDelay = 0
	}
	if c.SignalHysteresis < 0 {
		c.SignalHysteresis = 0
	}
	if c.DefaultSignal == 0 {
		c.DefaultSignal = def.DefaultSignal
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = def.StreamBuffer
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// secondaryDelay 返回次通道 t 的启动延迟
func (c *Config) secondaryDelay(t types.Transport) time.Duration {
	if t == types.TransportRadio {
		return c.RadioSecondaryDelay
	}
	return c.LANSecondaryDelay
}

// ConfigFromUnified 从统一配置创建发现配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	d := cfg.Discovery
	return &Config{
		LANEnabled:           d.WiFiEnabled,
		RadioEnabled:         d.BLEEnabled,
		Primary:              d.PrimaryTransport(),
		MaxDevices:           d.MaxDevices,
		DiscoveryTimeout:     d.DiscoveryTimeout.Duration(),
		RadioSecondaryDelay:  d.RadioSecondaryDelay.Duration(),
		LANSecondaryDelay:    d.LANSecondaryDelay.Duration(),
		SignalHysteresis:     d.SignalHysteresis,
		DefaultSignal:        d.DefaultSignal,
		EnableSmartSwitching: d.EnableSmartSwitching,
		StreamBuffer:         d.StreamBuffer,
	}
}
