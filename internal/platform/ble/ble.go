// Package ble 封装平台低功耗蓝牙原语
//
// Linux 上基于 tinygo.org/x/bluetooth（BlueZ over D-Bus）；其他平台的
// 所有操作返回 types.ErrUnsupported。
package ble

import (
	"github.com/dep2p/go-nearlink/pkg/lib/log"
)

var logger = log.Logger("platform/ble")

// DefaultAdapterID 默认适配器
const DefaultAdapterID = "hci0"

// Advertisement 一次无线广播
type Advertisement struct {
	// Address 对端地址（MAC）
	Address string

	// LocalName 广播名称，约定为 "显示名#设备ID"
	LocalName string

	// RSSI 信号强度（dBm），0 表示未知
	RSSI int
}

// closerFunc 把函数适配为 io.Closer
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
