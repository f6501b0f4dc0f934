package mdns

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	hmdns "github.com/hashicorp/mdns"

	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("discovery/mdns")

// QueryFunc 执行一次 mDNS 查询，应答写入 params.Entries
type QueryFunc func(ctx context.Context, params *hmdns.QueryParam) error

// ============================================================================
//                              Scanner
// ============================================================================

// Scanner 局域网扫描器
//
// 按 QueryInterval 周期性查询服务类型，把应答转换为原始发现。
type Scanner struct {
	config *Config
	clock  clock.Clock
	query  QueryFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	closed atomic.Bool
}

var _ interfaces.TransportScanner = (*Scanner)(nil)

// defaultQuery 使用 hashicorp/mdns 查询，查询时长由 params.Timeout 限定
func defaultQuery(_ context.Context, params *hmdns.QueryParam) error {
	return hmdns.Query(params)
}

// NewScanner 创建局域网扫描器，query 为 nil 时使用 hashicorp/mdns
func NewScanner(config *Config, clk clock.Clock, query QueryFunc) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if clk == nil {
		clk = clock.New()
	}
	if query == nil {
		query = defaultQuery
	}
	return &Scanner{config: config, clock: clk, query: query}
}

// Transport 返回 lan
func (s *Scanner) Transport() types.Transport {
	return types.TransportLAN
}

// Start 开始周期查询
func (s *Scanner) Start(ctx context.Context) (<-chan types.RawSighting, error) {
	if s.closed.Load() {
		return nil, ErrAlreadyClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	out := make(chan types.RawSighting, 32)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		defer close(out)
		s.loop(runCtx, out)
	}()

	logger.Info("mDNS 扫描启动",
		"service", s.config.ServiceTag,
		"interval", s.config.QueryInterval)
	return out, nil
}

// Stop 停止查询，返回后不再写入发现通道
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
	logger.Info("mDNS 扫描停止")
	return nil
}

// Close 停止扫描并拒绝后续 Start
func (s *Scanner) Close() error {
	s.closed.Store(true)
	return s.Stop()
}

func (s *Scanner) loop(ctx context.Context, out chan<- types.RawSighting) {
	ticker := s.clock.Ticker(s.config.QueryInterval)
	defer ticker.Stop()

	for {
		s.queryOnce(ctx, out)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// queryOnce 执行一次查询，查询期间边收边发
//
// ctx 取消时立即返回，未结束的查询只会写入本次的 entries。
func (s *Scanner) queryOnce(ctx context.Context, out chan<- types.RawSighting) {
	qctx, cancel := s.clock.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	entries := make(chan *hmdns.ServiceEntry, 16)
	params := &hmdns.QueryParam{
		Service:             s.config.ServiceTag,
		Domain:              s.config.Domain,
		Timeout:             s.config.QueryTimeout,
		Entries:             entries,
		DisableIPv6:         s.config.DisableIPv6,
		WantUnicastResponse: true,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.query(qctx, params)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-entries:
			if !s.forward(ctx, e, out) {
				return
			}
		case err := <-errc:
			for {
				select {
				case e := <-entries:
					if !s.forward(ctx, e, out) {
						return
					}
				default:
					if err != nil && ctx.Err() == nil {
						logger.Debug("mDNS 查询失败", "error", err)
					}
					return
				}
			}
		}
	}
}

// forward 转发一条应答，ctx 取消时返回 false
func (s *Scanner) forward(ctx context.Context, e *hmdns.ServiceEntry, out chan<- types.RawSighting) bool {
	raw, ok := decodeEntry(e, s.clock.Now())
	if !ok {
		return true
	}
	if self := s.config.Self.ID; self != "" && raw.DeviceID == self {
		return true
	}
	select {
	case out <- raw:
		return true
	case <-ctx.Done():
		return false
	}
}
