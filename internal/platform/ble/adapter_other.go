//go:build !linux

package ble

import (
	"context"
	"io"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// Adapter 不支持的平台上的占位适配器
type Adapter struct{}

// NewAdapter 创建适配器
func NewAdapter(_ string) *Adapter {
	logger.Debug("当前平台不支持低功耗蓝牙")
	return &Adapter{}
}

// Enable 返回 types.ErrUnsupported
func (a *Adapter) Enable() error {
	return types.ErrUnsupported
}

// Enabled 始终为 false
func (a *Adapter) Enabled() bool {
	return false
}

// Scan 返回 types.ErrUnsupported
func (a *Adapter) Scan(_ context.Context, _ func(Advertisement)) error {
	return types.ErrUnsupported
}

// Connect 返回 types.ErrUnsupported
func (a *Adapter) Connect(_ context.Context, _ string) (io.Closer, error) {
	return nil, types.ErrUnsupported
}
