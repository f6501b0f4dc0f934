package radio

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/internal/platform/ble"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// Module 是无线通道的 Fx 模块
var Module = fx.Module("transport_radio",
	fx.Provide(Provide),
)

// Params 无线通道依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Platform   *ble.Adapter   `optional:"true"`
	Connector  Connector      `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Result 无线通道导出结果
type Result struct {
	fx.Out

	Dialer      *Dialer
	RadioDialer interfaces.Dialer    `group:"dialers"`
	RadioProber quality.ProberEntry `group:"probers"`
}

// Provide 提供无线拨号器与探测器
//
// 优先使用注入的 Connector，其次是平台适配器。
func Provide(p Params) Result {
	var timeout = config.NewConfig().Connection.ConnectionTimeout.Duration()
	id := ble.DefaultAdapterID
	if p.UnifiedCfg != nil {
		timeout = p.UnifiedCfg.Connection.ConnectionTimeout.Duration()
		id = p.UnifiedCfg.Radio.AdapterID
	}

	var conn Connector
	switch {
	case p.Connector != nil:
		conn = p.Connector
	case p.Platform != nil:
		conn = p.Platform
	default:
		conn = ble.NewAdapter(id)
	}

	d := NewDialer(conn, timeout)
	return Result{
		Dialer:      d,
		RadioDialer: d,
		RadioProber: quality.ProberEntry{
			Transport: types.TransportRadio,
			Prober:    quality.NewStaticProber(quality.RadioEstimate(), p.Clock),
		},
	}
}
