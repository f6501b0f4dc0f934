package nearlink

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/lib/log"

	// Core Layer
	"github.com/dep2p/go-nearlink/internal/core/connmgr"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/internal/core/reachability"
	"github.com/dep2p/go-nearlink/internal/core/recovery"
	"github.com/dep2p/go-nearlink/internal/core/transport/lan"
	radiolink "github.com/dep2p/go-nearlink/internal/core/transport/radio"

	// Discovery Layer
	"github.com/dep2p/go-nearlink/internal/discovery/coordinator"
	"github.com/dep2p/go-nearlink/internal/discovery/mdns"
	radioscan "github.com/dep2p/go-nearlink/internal/discovery/radio"

	"github.com/dep2p/go-nearlink/internal/platform/ble"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var fxLogger = log.Logger("nearlink/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置、时钟、指标、可达性
//  2. 通道原语：扫描器进入 "scanners" 组，拨号器进入 "dialers" 组，
//     探测器进入 "probers" 组；调用方提供的原语替换该通道的默认模块
//  3. 质量监控 → 重连调度 → 连接协调器
//  4. 发现协调器
func buildFxApp(o *options, cfg *config.Config, node *Node) (*fx.App, error) {
	lanOn := cfg.Discovery.WiFiEnabled
	radioOn := cfg.Discovery.BLEEnabled
	if !lanOn && !radioOn {
		return nil, ErrNoTransportEnabled
	}

	// ════════════════════════════════════════════════════════════════════════
	// 1. 基础组件
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),
		metrics.Module,
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if o.reachability != nil {
		r := o.reachability
		modules = append(modules, fx.Provide(func() interfaces.ReachabilityOracle { return r }))
	} else {
		modules = append(modules, reachability.Module)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 通道原语
	// ════════════════════════════════════════════════════════════════════════
	if lanOn {
		modules = append(modules, transportOptions(o, types.TransportLAN, mdns.Module, lan.Module)...)
	}
	if radioOn {
		modules = append(modules, fx.Provide(func(cfg *config.Config) *ble.Adapter {
			return ble.NewAdapter(cfg.Radio.AdapterID)
		}))
		modules = append(modules, transportOptions(o, types.TransportRadio, radioscan.Module, radiolink.Module)...)
	}
	if o.radioOracle != nil {
		r := o.radioOracle
		if radioOn && o.scanners[types.TransportRadio] == nil {
			// 默认无线扫描模块已提供 RadioOracle
			modules = append(modules, fx.Decorate(func(interfaces.RadioOracle) interfaces.RadioOracle { return r }))
		} else {
			modules = append(modules, fx.Provide(func() interfaces.RadioOracle { return r }))
		}
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 连接管理
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		quality.Module,
		recovery.Module,
		connmgr.Module,
		fx.Invoke(overrideProbers(o)),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 发现层
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, coordinator.Module)

	// ════════════════════════════════════════════════════════════════════════
	// 5. 用户扩展与 Node 注入
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}
	modules = append(modules, fx.Invoke(injectNodeComponents(node)))

	// 禁用 Fx 日志输出（避免干扰用户日志）
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	fxLogger.Debug("构建 Fx 应用", "lan", lanOn, "radio", radioOn)
	return fx.New(modules...), nil
}

// transportOptions 返回单个通道的扫描与连接选项
//
// 调用方提供了扫描器或拨号器时，对应的默认模块不加载。
func transportOptions(o *options, t types.Transport, scanModule, linkModule fx.Option) []fx.Option {
	var out []fx.Option

	if s := o.scanners[t]; s != nil {
		out = append(out, fx.Provide(fx.Annotate(
			func() interfaces.TransportScanner { return s },
			fx.ResultTags(`group:"scanners"`),
		)))
	} else {
		out = append(out, scanModule)
	}

	if d := o.dialers[t]; d != nil {
		out = append(out, fx.Provide(fx.Annotate(
			func() interfaces.Dialer { return d },
			fx.ResultTags(`group:"dialers"`),
		)))
	} else {
		out = append(out, linkModule)
	}
	return out
}

// overrideProbers 在默认探测器注册之后应用调用方的探测器
//
// 替换了拨号器却未提供探测器的通道改用标称质量估计，默认探测器
// 无法识别调用方的连接句柄。
func overrideProbers(o *options) func(*quality.Monitor) {
	return func(m *quality.Monitor) {
		estimates := map[types.Transport]types.QualitySample{
			types.TransportLAN:   quality.LANEstimate(),
			types.TransportRadio: quality.RadioEstimate(),
		}
		for t := range o.dialers {
			if o.probers[t] == nil {
				m.SetProber(t, quality.NewStaticProber(estimates[t], o.clock))
			}
		}
		for t, p := range o.probers {
			m.SetProber(t, p)
		}
	}
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Discovery   *coordinator.Coordinator
	Connections *connmgr.Coordinator
	Metrics     *metrics.Collector `optional:"true"`
}

// injectNodeComponents 把 Fx 构建的组件注入 Node
func injectNodeComponents(node *Node) func(nodeInjectParams) {
	return func(p nodeInjectParams) {
		node.discovery = p.Discovery
		node.conns = p.Connections
		node.metrics = p.Metrics
	}
}
