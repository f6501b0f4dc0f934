// Package interfaces 定义 nearlink 公共接口
//
// 本文件定义环境状态接口。
package interfaces

// ReachabilityOracle 局域网可达性
type ReachabilityOracle interface {
	// IsNetworkAvailable 当前网络是否可用
	IsNetworkAvailable() bool

	// Subscribe 订阅可用性变化，返回取消函数
	Subscribe(onAvailable, onLost func()) (unsubscribe func())
}

// RadioOracle 无线开关状态
type RadioOracle interface {
	// IsRadioEnabled 无线是否开启
	IsRadioEnabled() bool
}
