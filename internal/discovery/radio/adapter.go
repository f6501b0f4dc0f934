package radio

import (
	"context"
	"strings"

	"github.com/dep2p/go-nearlink/internal/platform/ble"
)

// Adapter 平台无线适配器，默认实现为 *ble.Adapter
type Adapter interface {
	// Enable 打开适配器，可重复调用
	Enable() error

	// Scan 扫描广播直到 ctx 取消，每条广播回调一次
	Scan(ctx context.Context, fn func(ble.Advertisement)) error

	// Enabled 适配器是否已打开，查询不产生副作用
	Enabled() bool
}

var _ Adapter = (*ble.Adapter)(nil)

// ParseLocalName 拆分 "显示名#设备ID"
//
// 没有 '#' 时整个名称作为显示名，设备 ID 为空。
func ParseLocalName(s string) (name, id string) {
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
}

// LocalName 组合广播名称
func LocalName(name, id string) string {
	if id == "" {
		return name
	}
	return name + "#" + id
}
