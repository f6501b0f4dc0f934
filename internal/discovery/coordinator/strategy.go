package coordinator

import (
	"github.com/dep2p/go-nearlink/pkg/types"
)

// ============================================================================
//                              发现策略
// ============================================================================

// Environment 策略选择的输入
type Environment struct {
	LANEnabled       bool
	RadioEnabled     bool
	NetworkAvailable bool
	RadioAvailable   bool
	Primary          types.Transport
}

// SelectStrategy 根据环境选择发现策略
//
// 优先级：
//  1. 两个通道都禁用：None
//  2. 两个通道都启用且可用：按 Primary 决定主次
//  3. 恰好一个通道启用且可用：对应的 *Only 策略
//  4. 否则：None
func SelectStrategy(env Environment) types.DiscoveryStrategy {
	if !env.LANEnabled && !env.RadioEnabled {
		return types.StrategyNone
	}

	lan := env.LANEnabled && env.NetworkAvailable
	radio := env.RadioEnabled && env.RadioAvailable

	switch {
	case lan && radio:
		if env.Primary == types.TransportRadio {
			return types.StrategyRadioPrimaryLANSecondary
		}
		return types.StrategyLANPrimaryRadioSecondary
	case lan:
		return types.StrategyLANOnly
	case radio:
		return types.StrategyRadioOnly
	default:
		return types.StrategyNone
	}
}

// uses 策略是否包含通道 t
func uses(s types.DiscoveryStrategy, t types.Transport) bool {
	return t != types.TransportUnknown && (s.Primary() == t || s.Secondary() == t)
}
