package connmgr

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/internal/core/recovery"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
)

// Module 是 connmgr 的 Fx 模块
//
// 拨号器通过 "dialers" 值组注入。
var Module = fx.Module("connmgr",
	fx.Provide(ProvideCoordinator),
	fx.Invoke(registerLifecycle),
)

// Params 连接协调器依赖参数
type Params struct {
	fx.In

	UnifiedCfg   *config.Config                 `optional:"true"`
	Clock        clock.Clock                    `optional:"true"`
	Monitor      *quality.Monitor
	Scheduler    *recovery.Scheduler
	Dialers      []interfaces.Dialer            `group:"dialers"`
	Reachability interfaces.ReachabilityOracle `optional:"true"`
	Metrics      *metrics.Collector             `optional:"true"`
}

// ProvideCoordinator 提供连接协调器
func ProvideCoordinator(p Params) *Coordinator {
	c := NewCoordinator(ConfigFromUnified(p.UnifiedCfg), p.Clock, p.Monitor, p.Scheduler, p.Dialers...)
	c.SetMetrics(p.Metrics)
	c.SetReachability(p.Reachability)
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
			return input.Coordinator.Close()
		},
	})
}
