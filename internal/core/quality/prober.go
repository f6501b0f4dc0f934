package quality

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// StaticProber 返回固定估计值的探测器
//
// 用于无法主动测量的通道。
type StaticProber struct {
	Estimate types.QualitySample
	Clock    clock.Clock
}

var _ interfaces.QualityProber = (*StaticProber)(nil)

// NewStaticProber 创建固定估计值探测器
func NewStaticProber(estimate types.QualitySample, clk clock.Clock) *StaticProber {
	if clk == nil {
		clk = clock.New()
	}
	return &StaticProber{Estimate: estimate, Clock: clk}
}

// Probe 实现 QualityProber
func (p *StaticProber) Probe(ctx context.Context, _ types.Connection, _ interfaces.Handle) (types.QualitySample, error) {
	if err := ctx.Err(); err != nil {
		return types.QualitySample{}, err
	}
	s := p.Estimate
	s.Timestamp = p.Clock.Now()
	return s, nil
}

// RadioEstimate 无线通道的典型质量
func RadioEstimate() types.QualitySample {
	return types.QualitySample{LatencyMs: 150, PacketLoss: 0.05, Throughput: 50, Stability: 0.85}
}

// LANEstimate 局域网通道的典型质量
func LANEstimate() types.QualitySample {
	return types.QualitySample{LatencyMs: 50, PacketLoss: 0.01, Throughput: 800, Stability: 0.95}
}
