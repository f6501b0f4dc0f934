package lan

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// Module 是局域网通道的 Fx 模块
//
// 拨号器加入 "dialers" 值组，探测器加入 "probers" 值组。
var Module = fx.Module("transport_lan",
	fx.Provide(Provide),
)

// Params 局域网通道依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Dial       DialFunc       `optional:"true"`
}

// Result 局域网通道导出结果
type Result struct {
	fx.Out

	Dialer    *Dialer
	LANDialer interfaces.Dialer    `group:"dialers"`
	LANProber quality.ProberEntry `group:"probers"`
}

// Provide 提供局域网拨号器与探测器
func Provide(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	_ = cfg.Validate()
	d := NewDialer(cfg, p.Dial)
	return Result{
		Dialer:    d,
		LANDialer: d,
		LANProber: quality.ProberEntry{Transport: types.TransportLAN, Prober: NewProber(cfg.ProbeCount)},
	}
}
