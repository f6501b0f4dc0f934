// Package lib 提供与业务无关的基础库
//
// 子包：
//   - log: 基于 slog 的分组件日志，级别可按组件配置
//
// 使用示例：
//
//	import "github.com/dep2p/go-nearlink/pkg/lib/log"
//
//	var logger = log.Logger("discovery/mdns")
//	logger.Info("mDNS 扫描启动", "service", tag)
package lib
