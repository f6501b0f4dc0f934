package quality

import (
	"time"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// ============================================================================
//                              设备质量评分
// ============================================================================

// 设备评分权重
const (
	weightTransport  = 0.4
	weightSignal     = 0.3
	weightRecency    = 0.2
	weightConnection = 0.1
)

// LANBaseQuality 局域网首次发现时的基础质量
const LANBaseQuality = 0.85

// DeviceInputs 设备评分输入
type DeviceInputs struct {
	// Transports 已知通道
	Transports types.TransportSet

	// SignalDBm 无线信号强度
	SignalDBm int

	// Age 距最后一次发现的时长
	Age time.Duration

	// Battery 电量百分比，nil 表示未知
	Battery *int
}

// DeviceScore 计算设备质量评分，结果在 [0,1]
func DeviceScore(in DeviceInputs) float64 {
	s := TransportScore(in.Transports)*weightTransport +
		SignalScore(in.SignalDBm)*weightSignal +
		RecencyScore(in.Age)*weightRecency +
		ConnectionScore(in.Battery)*weightConnection
	return clamp01(s)
}

// TransportScore 通道多样性评分
func TransportScore(ts types.TransportSet) float64 {
	hasLAN, hasRadio := ts.Has(types.TransportLAN), ts.Has(types.TransportRadio)
	switch {
	case hasLAN && hasRadio:
		return 1.0
	case hasLAN:
		return 0.8
	case hasRadio:
		return 0.6
	default:
		return 0.3
	}
}

// SignalScore 信号强度分档
func SignalScore(dbm int) float64 {
	switch {
	case dbm > -50:
		return 1.0
	case dbm > -60:
		return 0.9
	case dbm > -70:
		return 0.7
	case dbm > -80:
		return 0.5
	case dbm > -90:
		return 0.3
	default:
		return 0.1
	}
}

// RecencyScore 新鲜度分档
func RecencyScore(age time.Duration) float64 {
	switch {
	case age < 5*time.Second:
		return 1.0
	case age < 15*time.Second:
		return 0.8
	case age < 30*time.Second:
		return 0.6
	case age < 60*time.Second:
		return 0.4
	default:
		return 0.2
	}
}

// ConnectionScore 电量分档，未知电量为 0.8
func ConnectionScore(battery *int) float64 {
	if battery == nil {
		return 0.8
	}
	switch b := *battery; {
	case b > 100:
		return 0.4
	case b >= 80:
		return 1.0
	case b >= 50:
		return 0.8
	case b >= 20:
		return 0.6
	default:
		return 0.4
	}
}

// BaseQuality 首次发现时的通道基础质量
//
// 局域网为固定值，无线取信号分档。
func BaseQuality(t types.Transport, signalDBm int) float64 {
	switch t {
	case types.TransportLAN:
		return LANBaseQuality
	case types.TransportRadio:
		return SignalScore(signalDBm)
	default:
		return TransportScore(0)
	}
}

// ============================================================================
//                              连接质量评分
// ============================================================================

// 连接评分权重
const (
	weightLatency    = 0.3
	weightLoss       = 0.3
	weightThroughput = 0.2
	weightStability  = 0.2
)

// SampleScore 计算采样的综合评分，结果在 [0,1]
func SampleScore(s types.QualitySample) float64 {
	v := LatencyScore(s.LatencyMs)*weightLatency +
		(1-clamp01(s.PacketLoss))*weightLoss +
		clamp01(s.Throughput/1000)*weightThroughput +
		clamp01(s.Stability)*weightStability
	return clamp01(v)
}

// LatencyScore 延迟分档
func LatencyScore(ms float64) float64 {
	switch {
	case ms < 50:
		return 1.0
	case ms < 100:
		return 0.8
	case ms < 200:
		return 0.6
	case ms < 500:
		return 0.4
	default:
		return 0.2
	}
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
