package radio

import "errors"

var (
	// ErrAlreadyRunning 扫描已在运行
	ErrAlreadyRunning = errors.New("radio: scan already running")

	// ErrNilAdapter 未提供适配器
	ErrNilAdapter = errors.New("radio: adapter is nil")
)
