package quality

import "errors"

var (
	// ErrNoProber 通道没有可用的探测器
	ErrNoProber = errors.New("quality: no prober for transport")

	// ErrProbePanic 探测器 panic
	ErrProbePanic = errors.New("quality: prober panicked")
)
