package quality

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// ProberEntry 注册到 "probers" 组的通道探测器
type ProberEntry struct {
	Transport types.Transport
	Prober    interfaces.QualityProber
}

// Module 是 quality 的 Fx 模块
var Module = fx.Module("quality",
	fx.Provide(ProvideMonitor),
	fx.Invoke(registerLifecycle),
)

// ConfigFromUnified 从统一配置创建监控配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{Interval: cfg.Quality.MonitorInterval.Duration()}
}

// Params 监控器依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	Probers    []ProberEntry  `group:"probers"`
}

// ProvideMonitor 提供质量监控器
//
// 同一通道注册多个探测器时后者生效。
func ProvideMonitor(p Params) *Monitor {
	m := NewMonitor(ConfigFromUnified(p.UnifiedCfg), p.Clock)
	for _, e := range p.Probers {
		m.SetProber(e.Transport, e.Prober)
	}
	return m
}

type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Monitor *Monitor
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			input.Monitor.Close()
			return nil
		},
	})
}
