package nearlink

import (
	"errors"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// 公共错误定义
var (
	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ErrDeviceNotFound 设备不在发现列表中
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNoTransportEnabled 没有启用任何通道
	ErrNoTransportEnabled = errors.New("at least one transport must be enabled (lan or radio)")
)

// 连接错误，与 pkg/types 中的定义相同，便于调用方 errors.Is
var (
	ErrNoTransportAvailable = types.ErrNoTransportAvailable
	ErrAllTransportsFailed  = types.ErrAllTransportsFailed
	ErrConnectionTimeout    = types.ErrConnectionTimeout
	ErrConnectionFailed     = types.ErrConnectionFailed
	ErrConnectInProgress    = types.ErrConnectInProgress
)
