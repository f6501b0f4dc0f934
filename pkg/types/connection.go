// Package types 定义 nearlink 公共类型
//
// 本文件定义连接相关类型。
package types

import (
	"io"
	"time"
)

// ============================================================================
//                              Connection - 活跃连接
// ============================================================================

// Connection 设备连接
//
// 同一 DeviceID 任意时刻至多一个存活连接。
type Connection struct {
	// ID 连接唯一标识
	ID string

	// DeviceID 设备 ID
	DeviceID string

	// Device 建立连接时的设备快照
	Device UnifiedDevice

	// Transport 当前使用的通道
	Transport Transport

	// State 连接状态
	State ConnectionState

	// StartTime 建立时间
	StartTime time.Time

	// Handle 通道连接句柄
	Handle io.Closer
}

// Snapshot 返回不含句柄的副本
func (c *Connection) Snapshot() Connection {
	out := *c
	out.Device = c.Device.Clone()
	out.Handle = nil
	return out
}

// ============================================================================
//                              QualitySample - 连接质量采样
// ============================================================================

// QualitySample 单次质量采样
type QualitySample struct {
	// LatencyMs 延迟（毫秒）
	LatencyMs float64

	// PacketLoss 丢包率 [0,1]
	PacketLoss float64

	// Throughput 吞吐量（KB/s）
	Throughput float64

	// Stability 稳定性 [0,1]
	Stability float64

	// Timestamp 采样时间
	Timestamp time.Time
}
