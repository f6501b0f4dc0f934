// Package types 定义 nearlink 公共类型
//
// 本文件定义所有公共错误类型。
package types

import (
	"context"
	"errors"
	"fmt"
)

// ============================================================================
//                              连接错误
// ============================================================================

var (
	// ErrNoTransportAvailable 当前环境下设备没有可用通道
	ErrNoTransportAvailable = errors.New("no transport available")

	// ErrAllTransportsFailed 所有候选通道均连接失败
	ErrAllTransportsFailed = errors.New("all transports failed")

	// ErrConnectionTimeout 单次连接超时
	ErrConnectionTimeout = errors.New("connection timeout")

	// ErrConnectionFailed 通道报告的连接失败
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectInProgress 同一设备已有连接操作进行中
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrClosed 组件已关闭
	ErrClosed = errors.New("closed")

	// ErrUnsupported 当前平台不支持
	ErrUnsupported = errors.New("unsupported on this platform")
)

// ConnectionFailedError 通道报告的连接失败
type ConnectionFailedError struct {
	Transport Transport
	Cause     error
}

// Error 实现 error 接口
func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("connection failed via %s: %v", e.Transport, e.Cause)
}

// Unwrap 返回底层错误
func (e *ConnectionFailedError) Unwrap() error {
	return e.Cause
}

// Is 使 errors.Is(err, ErrConnectionFailed) 成立
func (e *ConnectionFailedError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// ============================================================================
//                              ErrorKind - 错误类别
// ============================================================================

// ErrorKind 连接错误类别
type ErrorKind int

const (
	// ErrorKindUnknown 未知
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindNoTransportAvailable 无可用通道
	ErrorKindNoTransportAvailable
	// ErrorKindAllTransportsFailed 所有通道失败
	ErrorKindAllTransportsFailed
	// ErrorKindConnectionTimeout 连接超时
	ErrorKindConnectionTimeout
	// ErrorKindConnectionFailed 通道连接失败
	ErrorKindConnectionFailed
	// ErrorKindCanceled 已取消
	ErrorKindCanceled
)

// String 返回类别的字符串表示
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNoTransportAvailable:
		return "no_transport_available"
	case ErrorKindAllTransportsFailed:
		return "all_transports_failed"
	case ErrorKindConnectionTimeout:
		return "connection_timeout"
	case ErrorKindConnectionFailed:
		return "connection_failed"
	case ErrorKindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// KindOf 返回错误类别
//
// 包装链中最外层的类别优先：AllTransportsFailed 包装的超时仍归为 AllTransportsFailed。
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindUnknown
	case errors.Is(err, ErrNoTransportAvailable):
		return ErrorKindNoTransportAvailable
	case errors.Is(err, ErrAllTransportsFailed):
		return ErrorKindAllTransportsFailed
	case errors.Is(err, ErrConnectionTimeout):
		return ErrorKindConnectionTimeout
	case errors.Is(err, ErrConnectionFailed):
		return ErrorKindConnectionFailed
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	default:
		return ErrorKindUnknown
	}
}
