package connmgr

import "errors"

// 连接协调器错误定义
var (
	// ErrNotConnected 设备没有活跃连接
	ErrNotConnected = errors.New("connmgr: device not connected")

	// ErrSwitchInProgress 设备正在切换通道
	ErrSwitchInProgress = errors.New("connmgr: switch in progress")

	// ErrSwitchThrottled 切换过于频繁
	ErrSwitchThrottled = errors.New("connmgr: switch throttled")

	// ErrSwitchFailed 切换失败，已回到原通道
	ErrSwitchFailed = errors.New("connmgr: switch failed, restored original transport")

	// ErrConnectAborted 连接进行中被断开请求取消
	ErrConnectAborted = errors.New("connmgr: connect aborted")

	// ErrNoDialer 通道没有注册拨号器
	ErrNoDialer = errors.New("connmgr: no dialer for transport")

	// ErrNilHandle 拨号器返回空句柄
	ErrNilHandle = errors.New("connmgr: dialer returned nil handle")

	// ErrCloseTimeout 关闭句柄超时
	ErrCloseTimeout = errors.New("connmgr: handle close timed out")
)
