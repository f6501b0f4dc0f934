// Package interfaces 定义 nearlink 公共接口
//
// 本文件定义通道连接原语接口。
package interfaces

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

import (
	"context"
	"io"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// Handle 不透明的通道连接句柄
type Handle = io.Closer

// Dialer 通道连接原语
type Dialer interface {
	// Transport 返回所属通道
	Transport() types.Transport

	// Open 建立到设备的连接
	//
	// 超时由 ctx 控制；调用方会在超时后丢弃迟到的句柄并关闭它。
	Open(ctx context.Context, device types.UnifiedDevice) (Handle, error)
}

// QualityProber 连接质量探测器
type QualityProber interface {
	// Probe 对连接进行一次质量采样
	Probe(ctx context.Context, conn types.Connection, handle Handle) (types.QualitySample, error)
}
