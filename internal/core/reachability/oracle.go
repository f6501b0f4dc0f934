// Package reachability 提供局域网可达性判断
//
// PollingOracle 按固定间隔读取系统网卡，可用性变化时通知订阅者。
// Static 为固定值实现，用于测试与无网卡探测的环境。
package reachability

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
)

var logger = log.Logger("core/reachability")

// ============================================================================
//                              PollingOracle
// ============================================================================

// PollingOracle 基于网卡轮询的可达性判断
type PollingOracle struct {
	config *Config
	clock  clock.Clock
	list   Lister
	subs   subscribers

	mu          sync.Mutex
	available   bool
	fingerprint string
	sampled     bool

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ interfaces.ReachabilityOracle = (*PollingOracle)(nil)

// NewPollingOracle 创建轮询可达性判断
//
// list 为 nil 时使用 SystemInterfaces。
func NewPollingOracle(config *Config, clk clock.Clock, list Lister) *PollingOracle {
	if config == nil {
		config = DefaultConfig()
	}
	cp := *config
	_ = cp.Validate()
	if clk == nil {
		clk = clock.New()
	}
	if list == nil {
		list = SystemInterfaces
	}
	return &PollingOracle{config: &cp, clock: clk, list: list}
}

// IsNetworkAvailable 当前网络是否可用
//
// 未启动时即时读取一次网卡。
func (o *PollingOracle) IsNetworkAvailable() bool {
	o.mu.Lock()
	sampled, available := o.sampled, o.available
	o.mu.Unlock()
	if sampled {
		return available
	}
	ifaces, err := o.list()
	if err != nil {
		return false
	}
	return Usable(ifaces)
}

// Subscribe 订阅可用性变化
func (o *PollingOracle) Subscribe(onAvailable, onLost func()) func() {
	return o.subs.add(onAvailable, onLost)
}

// Start 读取初始状态并启动轮询
func (o *PollingOracle) Start(_ context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.check(false)

	o.wg.Add(1)
	go o.pollLoop(ctx)

	logger.Info("可达性轮询已启动", "poll_interval", o.config.PollInterval, "available", o.IsNetworkAvailable())
	return nil
}

// Stop 停止轮询
func (o *PollingOracle) Stop() error {
	if !o.running.CompareAndSwap(true, false) {
		return nil
	}
	o.cancel()
	o.wg.Wait()
	logger.Info("可达性轮询已停止")
	return nil
}

func (o *PollingOracle) pollLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := o.clock.Ticker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.check(true)
		}
	}
}

// check 读取网卡并在可用性变化时通知
func (o *PollingOracle) check(notify bool) {
	ifaces, err := o.list()
	if err != nil {
		logger.Debug("读取网卡失败", "error", err)
		ifaces = nil
	}
	available := Usable(ifaces)
	fp := fingerprint(ifaces)

	o.mu.Lock()
	prev, prevFP, sampled := o.available, o.fingerprint, o.sampled
	o.available, o.fingerprint, o.sampled = available, fp, true
	o.mu.Unlock()

	if sampled && fp != prevFP {
		logger.Debug("检测到网络变化",
			"old_fingerprint", log.TruncateID(prevFP, 8),
			"new_fingerprint", log.TruncateID(fp, 8))
	}
	if !notify || !sampled || prev == available {
		return
	}

	if available {
		logger.Info("网络已恢复")
	} else {
		logger.Info("网络已断开")
	}
	o.subs.notify(available)
}

// ============================================================================
//                              Static
// ============================================================================

// Static 手动设置的可达性
type Static struct {
	available atomic.Bool
	subs      subscribers
}

var _ interfaces.ReachabilityOracle = (*Static)(nil)

// NewStatic 创建固定可达性
func NewStatic(available bool) *Static {
	s := &Static{}
	s.available.Store(available)
	return s
}

// IsNetworkAvailable 当前网络是否可用
func (s *Static) IsNetworkAvailable() bool {
	return s.available.Load()
}

// Subscribe 订阅可用性变化
func (s *Static) Subscribe(onAvailable, onLost func()) func() {
	return s.subs.add(onAvailable, onLost)
}

// Set 设置可用性，变化时同步通知订阅者
func (s *Static) Set(available bool) {
	if s.available.Swap(available) == available {
		return
	}
	s.subs.notify(available)
}
