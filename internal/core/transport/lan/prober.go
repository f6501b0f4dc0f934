package lan

import (
	"context"
	"math"
	"time"

	"github.com/dep2p/go-nearlink/internal/core/quality"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/types"
)

// Pinger 能测量往返时延的会话
type Pinger interface {
	Ping() (time.Duration, error)
}

// Prober 基于会话 Ping 的质量探测器
//
// 吞吐量无法由 Ping 测得，按 quality.LANEstimate 标称值乘以送达率估算。
type Prober struct {
	count int
	now   func() time.Time
}

var _ interfaces.QualityProber = (*Prober)(nil)

// NewProber 创建探测器，每次采样 Ping count 次
func NewProber(count int) *Prober {
	if count < 1 {
		count = 1
	}
	return &Prober{count: count, now: time.Now}
}

// Probe 对会话进行一次质量采样
func (p *Prober) Probe(ctx context.Context, _ types.Connection, handle interfaces.Handle) (types.QualitySample, error) {
	pinger, ok := handle.(Pinger)
	if !ok {
		return types.QualitySample{}, ErrNotSession
	}

	rtts := make([]float64, 0, p.count)
	failed := 0
	for i := 0; i < p.count; i++ {
		if err := ctx.Err(); err != nil {
			return types.QualitySample{}, err
		}
		rtt, err := pinger.Ping()
		if err != nil {
			failed++
			continue
		}
		rtts = append(rtts, float64(rtt)/float64(time.Millisecond))
	}
	if len(rtts) == 0 {
		return types.QualitySample{}, ErrAllPingsFailed
	}

	loss := float64(failed) / float64(p.count)
	mean, stddev := meanStd(rtts)
	return types.QualitySample{
		LatencyMs:  mean,
		PacketLoss: loss,
		Throughput: quality.LANEstimate().Throughput * (1 - loss),
		Stability:  stability(mean, stddev),
		Timestamp:  p.now(),
	}, nil
}

func meanStd(xs []float64) (mean, stddev float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		stddev += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(stddev / float64(len(xs)))
}

// stability 抖动越小越稳定，抖动等于均值时为 0
func stability(mean, stddev float64) float64 {
	if mean <= 0 {
		return 1
	}
	return math.Max(0, 1-stddev/mean)
}
