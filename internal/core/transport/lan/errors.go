package lan

import "errors"

var (
	// ErrNoEndpoint 设备没有局域网地址
	ErrNoEndpoint = errors.New("lan: device has no lan endpoint")

	// ErrNotSession 句柄不是局域网会话
	ErrNotSession = errors.New("lan: handle is not a lan session")

	// ErrAllPingsFailed 所有 Ping 都失败
	ErrAllPingsFailed = errors.New("lan: all pings failed")
)
