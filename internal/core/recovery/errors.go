package recovery

import "errors"

var (
	// ErrNoConnector 未设置连接函数
	ErrNoConnector = errors.New("recovery: connector not set")
)
