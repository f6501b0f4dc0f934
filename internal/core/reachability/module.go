package reachability

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
)

// Module 是 reachability 的 Fx 模块，提供系统网卡轮询实现
var Module = fx.Module("reachability",
	fx.Provide(
		ProvideOracle,
		func(o *PollingOracle) interfaces.ReachabilityOracle { return o },
	),
	fx.Invoke(registerLifecycle),
)

// Params 可达性依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	Lister     Lister         `optional:"true"`
}

// ProvideOracle 提供轮询可达性判断
func ProvideOracle(p Params) *PollingOracle {
	return NewPollingOracle(ConfigFromUnified(p.UnifiedCfg), p.Clock, p.Lister)
}

type lifecycleInput struct {
	fx.In
	LC     fx.Lifecycle
	Oracle *PollingOracle
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Oracle.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Oracle.Stop()
		},
	})
}
