package coordinator

import "errors"

var (
	// ErrInvalidSighting 发现事件缺少标识
	ErrInvalidSighting = errors.New("discovery: sighting has no id")

	// ErrSightingPanic 处理发现事件时发生 panic
	ErrSightingPanic = errors.New("discovery: sighting handler panicked")

	// ErrScannerStart 扫描器启动失败
	ErrScannerStart = errors.New("discovery: scanner start failed")

	// ErrNotStarted 协调器未启动
	ErrNotStarted = errors.New("discovery: coordinator not started")
)
