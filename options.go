package nearlink

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// Option 节点配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// config 基础配置，nil 时使用默认配置
	config *config.Config

	// preset 在基础配置上应用的预设
	preset string

	// 替换默认通道原语
	scanners map[types.Transport]interfaces.TransportScanner
	dialers  map[types.Transport]interfaces.Dialer
	probers  map[types.Transport]interfaces.QualityProber

	// 环境来源
	reachability interfaces.ReachabilityOracle
	radioOracle  interfaces.RadioOracle

	clock      clock.Clock
	registerer prometheus.Registerer

	lanAdvertise *bool

	// userFxOptions 用户扩展的 Fx 选项
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{
		scanners: make(map[types.Transport]interfaces.TransportScanner),
		dialers:  make(map[types.Transport]interfaces.Dialer),
		probers:  make(map[types.Transport]interfaces.QualityProber),
	}
}

// resolveConfig 合成最终配置：基础配置 → 预设 → 单项选项 → 校验
func (o *options) resolveConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if o.config != nil {
		cfg = config.CloneConfig(o.config)
	}
	if o.preset != "" {
		if err := config.ApplyPreset(cfg, o.preset); err != nil {
			return nil, err
		}
	}
	if o.lanAdvertise != nil {
		cfg.LAN.Advertise = *o.lanAdvertise
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// WithConfig 使用完整配置
//
// 配置被复制，调用方之后的修改不影响节点。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithPreset 应用预设（mobile、desktop、server、minimal）
func WithPreset(name string) Option {
	return func(o *options) error {
		if err := config.ApplyPreset(config.NewConfig(), name); err != nil {
			return err
		}
		o.preset = name
		return nil
	}
}

// WithScanner 替换该通道的默认扫描器
func WithScanner(s interfaces.TransportScanner) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("scanner is nil")
		}
		o.scanners[s.Transport()] = s
		return nil
	}
}

// WithDialer 替换该通道的默认连接原语
//
// 未同时提供探测器时，该通道使用标称质量估计。
func WithDialer(d interfaces.Dialer) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("dialer is nil")
		}
		o.dialers[d.Transport()] = d
		return nil
	}
}

// WithProber 设置通道的质量探测器
func WithProber(t types.Transport, p interfaces.QualityProber) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("prober is nil")
		}
		if t != types.TransportLAN && t != types.TransportRadio {
			return fmt.Errorf("unknown transport: %s", t)
		}
		o.probers[t] = p
		return nil
	}
}

// WithReachability 替换系统网卡轮询的网络可达性来源
func WithReachability(r interfaces.ReachabilityOracle) Option {
	return func(o *options) error {
		o.reachability = r
		return nil
	}
}

// WithRadioOracle 替换无线开关状态来源
func WithRadioOracle(r interfaces.RadioOracle) Option {
	return func(o *options) error {
		o.radioOracle = r
		return nil
	}
}

// WithClock 注入时钟，所有定时器使用该时钟
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithMetricsRegisterer 指标注册到 reg，默认使用独立 Registry
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithLANAdvertise 是否在局域网上通告本机
func WithLANAdvertise(enable bool) Option {
	return func(o *options) error {
		o.lanAdvertise = &enable
		return nil
	}
}

// WithFxOptions 追加 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
