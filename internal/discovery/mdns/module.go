package mdns

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
)

// Module 是局域网发现的 Fx 模块
//
// 扫描器加入 "scanners" 值组；配置开启广播时同时启动 Advertiser。
var Module = fx.Module("discovery_mdns",
	fx.Provide(Provide),
	fx.Invoke(registerLifecycle),
)

// Params 局域网发现依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	Query      QueryFunc      `optional:"true"`
}

// Result 局域网发现导出结果
type Result struct {
	fx.Out

	Scanner     *Scanner
	Advertiser  *Advertiser
	LANScanner  interfaces.TransportScanner `group:"scanners"`
}

// Provide 提供局域网扫描器与广播器
func Provide(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	s := NewScanner(cfg, p.Clock, p.Query)
	return Result{
		Scanner:     s,
		Advertiser:  NewAdvertiser(cfg, nil),
		LANScanner:  s,
	}
}

type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Scanner    *Scanner
	Advertiser *Advertiser
}

func registerLifecycle(input lifecycleInput) {
	advertise := input.UnifiedCfg != nil && input.UnifiedCfg.LAN.Advertise
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !advertise {
				return nil
			}
			// 广播失败不影响扫描
			if err := input.Advertiser.Start(); err != nil {
				logger.Warn("mDNS 广播启动失败", "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return multierr.Combine(input.Advertiser.Stop(), input.Scanner.Close())
		},
	})
}
