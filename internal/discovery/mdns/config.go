package mdns

import (
	"time"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/types"
)

const (
	// DefaultServiceTag mDNS 服务类型
	DefaultServiceTag = "_nearlink._tcp"

	// DefaultDomain mDNS 域
	DefaultDomain = "local"

	// DefaultQueryInterval 查询间隔
	DefaultQueryInterval = 10 * time.Second

	// DefaultQueryTimeout 单次查询等待应答的时间
	DefaultQueryTimeout = 3 * time.Second

	// DefaultAdvertisePort 广播的服务端口
	DefaultAdvertisePort = 47100
)

// Config 局域网发现配置
type Config struct {
	// ServiceTag mDNS 服务类型
	ServiceTag string

	// Domain mDNS 域
	Domain string

	// QueryInterval 查询间隔
	QueryInterval time.Duration

	// QueryTimeout 单次查询等待应答的时间
	QueryTimeout time.Duration

	// DisableIPv6 查询时禁用 IPv6
	DisableIPv6 bool

	// Advertise 是否广播本机服务
	Advertise bool

	// AdvertisePort 广播的服务端口
	AdvertisePort int

	// Self 本机广播信息，扫描时跳过同 ID 的应答
	Self Info
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ServiceTag:    DefaultServiceTag,
		Domain:        DefaultDomain,
		QueryInterval: DefaultQueryInterval,
		QueryTimeout:  DefaultQueryTimeout,
		AdvertisePort: DefaultAdvertisePort,
		Self:          Info{Class: types.DeviceClassDesktop},
	}
}

// Validate 验证配置，非法值回退为默认值
func (c *Config) Validate() error {
	if c.ServiceTag == "" {
		c.ServiceTag = DefaultServiceTag
	}
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	if c.QueryInterval <= 0 {
		c.QueryInterval = DefaultQueryInterval
	}
	if c.QueryTimeout <= 0 || c.QueryTimeout > c.QueryInterval {
		c.QueryTimeout = min(DefaultQueryTimeout, c.QueryInterval)
	}
	if c.AdvertisePort <= 0 || c.AdvertisePort > 65535 {
		c.AdvertisePort = DefaultAdvertisePort
	}
	return nil
}

// Clone 克隆配置
func (c *Config) Clone() *Config {
	cp := *c
	cp.Self.Capabilities = append([]types.Capability(nil), c.Self.Capabilities...)
	return &cp
}

// ConfigFromUnified 从统一配置创建局域网发现配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	l := cfg.LAN
	return &Config{
		ServiceTag:    l.ServiceTag,
		Domain:        l.Domain,
		QueryInterval: l.QueryInterval.Duration(),
		QueryTimeout:  l.QueryTimeout.Duration(),
		DisableIPv6:   l.DisableIPv6,
		Advertise:     l.Advertise,
		AdvertisePort: l.AdvertisePort,
		Self: Info{
			ID:           l.DeviceID,
			Name:         l.DeviceName,
			Class:        types.ParseDeviceClass(l.DeviceClass),
			Capabilities: []types.Capability{types.CapabilityClipboardSync},
		},
	}
}
