package coordinator

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
)

// Module 是发现协调器的 Fx 模块
//
// 扫描器通过 "scanners" 值组注入。
var Module = fx.Module("discovery_coordinator",
	fx.Provide(ProvideCoordinator),
	fx.Invoke(registerLifecycle),
)

// Params 发现协调器依赖参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config                 `optional:"true"`
	Clock        clock.Clock                    `optional:"true"`
	Scanners     []interfaces.TransportScanner  `group:"scanners"`
	Reachability interfaces.ReachabilityOracle `optional:"true"`
	Radio        interfaces.RadioOracle         `optional:"true"`
	Metrics      *metrics.Collector             `optional:"true"`
}

// ProvideCoordinator 提供发现协调器
func ProvideCoordinator(p Params) *Coordinator {
	c := NewCoordinator(ConfigFromUnified(p.UnifiedCfg), p.Clock, p.Scanners...)
	c.SetReachability(p.Reachability)
	c.SetRadioOracle(p.Radio)
	c.SetMetrics(p.Metrics)
	return c
}

type lifecycleInput struct {
	fx.In
	LC          fx.Lifecycle
	Coordinator *Coordinator
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Coordinator.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Coordinator.Stop()
		},
	})
}
