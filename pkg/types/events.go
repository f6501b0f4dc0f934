// Package types 定义 nearlink 公共类型
//
// 本文件定义事件相关类型。
package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              ConnectionEvent - 连接事件
// ============================================================================

// ConnectionEventType 连接事件类型
type ConnectionEventType int

const (
	// EventConnected 连接建立
	EventConnected ConnectionEventType = iota + 1
	// EventDisconnected 连接断开
	EventDisconnected
	// EventFailed 连接失败
	EventFailed
	// EventTransportSwitched 通道已切换
	EventTransportSwitched
)

// String 返回事件类型的字符串表示
func (t ConnectionEventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventFailed:
		return "failed"
	case EventTransportSwitched:
		return "transport_switched"
	default:
		return "unknown"
	}
}

// ConnectionEvent 连接事件
//
// 按 Type 区分变体，各变体使用的字段：
//   - Connected:         Transport
//   - Disconnected:      Transport（断开前的通道）
//   - Failed:            Reason, Err
//   - TransportSwitched: From, Transport, SwitchReason
type ConnectionEvent struct {
	Type      ConnectionEventType
	DeviceID  string
	Transport Transport

	// From 切换前通道
	From Transport

	// SwitchReason 切换原因
	SwitchReason SwitchReason

	// Reason 人类可读的失败原因
	Reason string

	// Err 失败错误，可用 KindOf 获取错误类别
	Err error

	Time time.Time
}

// String 返回事件描述
func (e ConnectionEvent) String() string {
	switch e.Type {
	case EventConnected:
		return fmt.Sprintf("connected(%s via %s)", e.DeviceID, e.Transport)
	case EventDisconnected:
		return fmt.Sprintf("disconnected(%s)", e.DeviceID)
	case EventFailed:
		return fmt.Sprintf("failed(%s: %s)", e.DeviceID, e.Reason)
	case EventTransportSwitched:
		return fmt.Sprintf("transport_switched(%s %s->%s, %s)", e.DeviceID, e.From, e.Transport, e.SwitchReason)
	default:
		return "unknown"
	}
}

// NewConnectedEvent 创建连接建立事件
func NewConnectedEvent(deviceID string, t Transport, at time.Time) ConnectionEvent {
	return ConnectionEvent{Type: EventConnected, DeviceID: deviceID, Transport: t, Time: at}
}

// NewDisconnectedEvent 创建连接断开事件
func NewDisconnectedEvent(deviceID string, t Transport, at time.Time) ConnectionEvent {
	return ConnectionEvent{Type: EventDisconnected, DeviceID: deviceID, Transport: t, Time: at}
}

// NewFailedEvent 创建连接失败事件
func NewFailedEvent(deviceID string, err error, at time.Time) ConnectionEvent {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return ConnectionEvent{Type: EventFailed, DeviceID: deviceID, Reason: reason, Err: err, Time: at}
}

// NewSwitchedEvent 创建通道切换事件
func NewSwitchedEvent(deviceID string, from, to Transport, reason SwitchReason, at time.Time) ConnectionEvent {
	return ConnectionEvent{
		Type:         EventTransportSwitched,
		DeviceID:     deviceID,
		From:         from,
		Transport:    to,
		SwitchReason: reason,
		Time:         at,
	}
}
