package mdns

import "errors"

var (
	// ErrAlreadyClosed 服务已关闭
	ErrAlreadyClosed = errors.New("mdns: already closed")

	// ErrAlreadyRunning 扫描已在运行
	ErrAlreadyRunning = errors.New("mdns: scan already running")

	// ErrNoAddresses 没有可广播的地址
	ErrNoAddresses = errors.New("mdns: no usable addresses to advertise")

	// ErrMissingID 广播信息缺少设备 ID
	ErrMissingID = errors.New("mdns: advertise info has no device id")
)
