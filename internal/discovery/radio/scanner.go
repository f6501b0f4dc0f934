package radio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nearlink/internal/platform/ble"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("discovery/radio")

// Scanner 无线扫描器
type Scanner struct {
	adapter    Adapter
	clock      clock.Clock
	namePrefix string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ interfaces.TransportScanner = (*Scanner)(nil)

// NewScanner 创建无线扫描器
//
// namePrefix 非空时只上报显示名以该前缀开头的广播。
func NewScanner(adapter Adapter, clk clock.Clock, namePrefix string) *Scanner {
	if clk == nil {
		clk = clock.New()
	}
	return &Scanner{adapter: adapter, clock: clk, namePrefix: namePrefix}
}

// Transport 返回 radio
func (s *Scanner) Transport() types.Transport {
	return types.TransportRadio
}

// Start 打开适配器并开始扫描
func (s *Scanner) Start(ctx context.Context) (<-chan types.RawSighting, error) {
	if s.adapter == nil {
		return nil, ErrNilAdapter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, ErrAlreadyRunning
	}
	if err := s.adapter.Enable(); err != nil {
		return nil, fmt.Errorf("radio: enable adapter: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	out := make(chan types.RawSighting, 32)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		defer close(out)
		err := s.adapter.Scan(runCtx, func(adv ble.Advertisement) {
			raw, ok := s.convert(adv)
			if !ok {
				return
			}
			select {
			case out <- raw:
			case <-runCtx.Done():
			}
		})
		if err != nil && runCtx.Err() == nil {
			logger.Warn("无线扫描异常结束", "error", err)
		}
	}()

	logger.Info("无线扫描启动")
	return out, nil
}

// Stop 停止扫描，返回后不再写入发现通道
func (s *Scanner) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	logger.Info("无线扫描停止")
	return nil
}

func (s *Scanner) convert(adv ble.Advertisement) (types.RawSighting, bool) {
	if adv.Address == "" {
		return types.RawSighting{}, false
	}
	name, id := ParseLocalName(adv.LocalName)
	if s.namePrefix != "" && !strings.HasPrefix(name, s.namePrefix) {
		return types.RawSighting{}, false
	}
	raw := types.RawSighting{
		TransportLocalID: adv.Address,
		DeviceID:         id,
		Name:             name,
		Timestamp:        s.clock.Now(),
	}
	if adv.RSSI != 0 {
		raw.SignalHint = types.IntPtr(adv.RSSI)
	}
	return raw, true
}

// ============================================================================
//                              Oracle
// ============================================================================

// Oracle 以适配器状态作为无线开关状态
type Oracle struct {
	adapter Adapter
}

var _ interfaces.RadioOracle = (*Oracle)(nil)

// NewOracle 创建无线开关状态来源
func NewOracle(adapter Adapter) *Oracle {
	return &Oracle{adapter: adapter}
}

// Power 打开适配器，节点启动时调用一次
func (o *Oracle) Power() error {
	if o.adapter == nil {
		return ErrNilAdapter
	}
	return o.adapter.Enable()
}

// IsRadioEnabled 无线是否可用
func (o *Oracle) IsRadioEnabled() bool {
	return o.adapter != nil && o.adapter.Enabled()
}
