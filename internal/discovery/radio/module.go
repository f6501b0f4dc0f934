package radio

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/platform/ble"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
)

// Module 是无线发现的 Fx 模块
//
// 扫描器加入 "scanners" 值组，同时以适配器状态提供 RadioOracle。
var Module = fx.Module("discovery_radio",
	fx.Provide(Provide),
	fx.Invoke(registerLifecycle),
)

// Params 无线发现依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	Platform   *ble.Adapter   `optional:"true"`
}

// Result 无线发现导出结果
type Result struct {
	fx.Out

	Scanner      *Scanner
	RadioScanner interfaces.TransportScanner `group:"scanners"`
	Oracle       interfaces.RadioOracle
	RadioOracle  *Oracle
}

// Provide 提供无线扫描器与开关状态
func Provide(p Params) Result {
	id, prefix := ble.DefaultAdapterID, ""
	if p.UnifiedCfg != nil {
		id, prefix = p.UnifiedCfg.Radio.AdapterID, p.UnifiedCfg.Radio.NamePrefix
	}

	var adapter Adapter
	if p.Platform != nil {
		adapter = p.Platform
	} else {
		adapter = ble.NewAdapter(id)
	}

	s := NewScanner(adapter, p.Clock, prefix)
	o := NewOracle(adapter)
	return Result{Scanner: s, RadioScanner: s, Oracle: o, RadioOracle: o}
}

type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Scanner *Scanner
	Oracle  *Oracle
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// 适配器不可用时无线通道视为关闭，不阻止启动
			if err := input.Oracle.Power(); err != nil {
				logger.Warn("打开无线适配器失败", "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return input.Scanner.Stop()
		},
	})
}
