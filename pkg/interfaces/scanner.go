// Package interfaces 定义 nearlink 公共接口
//
// 本文件定义扫描器接口。
package interfaces

import (
	"context"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// TransportScanner 单通道扫描器
//
// 包装平台扫描原语，输出该通道上的原始发现事件。
// 必须支持重复 Start/Stop；Stop 返回后不得再向通道写入。
type TransportScanner interface {
	// Transport 返回扫描器所属通道
	Transport() types.Transport

	// Start 开始扫描
	//
	// 返回的通道在 Stop 或 ctx 取消后关闭。
	Start(ctx context.Context) (<-chan types.RawSighting, error)

	// Stop 停止扫描，可重复调用
	Stop() error
}
