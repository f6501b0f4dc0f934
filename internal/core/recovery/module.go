package recovery

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
)

// Module 是 recovery 的 Fx 模块
var Module = fx.Module("recovery",
	fx.Provide(ProvideScheduler),
	fx.Invoke(registerLifecycle),
)

// ConfigFromUnified 从统一配置创建重连配置
//
// 关闭自动重连时 MaxAttempts 为 0。
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	r := cfg.Reconnect
	out := &Config{
		MaxAttempts:   r.ReconnectAttempts,
		BaseDelay:     r.BaseDelay.Duration(),
		MaxDelay:      r.MaxDelay.Duration(),
		BackoffFactor: r.BackoffFactor,
	}
	if !r.Enabled {
		out.MaxAttempts = 0
	}
	return out
}

// Params 重连调度器依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// ProvideScheduler 提供重连调度器
func ProvideScheduler(p Params) *Scheduler {
	return NewScheduler(ConfigFromUnified(p.UnifiedCfg), p.Clock)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC        fx.Lifecycle
	Scheduler *Scheduler
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			input.Scheduler.Close()
			return nil
		},
	})
}
