// Package eventbus 实现类型化事件分发
//
// Hub 把一个生产者的事件按发射顺序推送给所有订阅者。投递是阻塞的：
// 订阅者必须持续读取或关闭订阅，事件不会被丢弃。
package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-nearlink/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ErrClosed 事件总线已关闭
var ErrClosed = errors.New("eventbus closed")

// DefaultBuffer 默认订阅缓冲
const DefaultBuffer = 64

// ============================================================================
//                              Hub
// ============================================================================

// Hub 类型化事件总线
type Hub[T any] struct {
	// emitMu 串行化发射，保证每个订阅者看到的顺序与发射顺序一致
	emitMu sync.Mutex

	mu       sync.RWMutex
	sinks    []*Subscription[T]
	onChange []func(n int)

	done   chan struct{}
	closed atomic.Bool
}

// NewHub 创建事件总线
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{done: make(chan struct{})}
}

// OnChange 注册订阅者数量变化回调
func (h *Hub[T]) OnChange(fn func(n int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Subscribe 订阅事件
//
// ctx 取消或调用 Close 后订阅结束，Out 通道随之关闭。
func (h *Hub[T]) Subscribe(ctx context.Context, buffer int) (*Subscription[T], error) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	sub := &Subscription[T]{
		hub:  h,
		out:  make(chan T, buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.sinks = append(h.sinks, sub)
	n := len(h.sinks)
	hooks := h.onChange
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(n)
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.done:
			}
		}()
	}
	return sub, nil
}

// Emit 向所有订阅者发射事件
//
// 阻塞直到每个订阅者接收、关闭订阅，或总线关闭。
func (h *Hub[T]) Emit(event T) error {
	return h.EmitContext(context.Background(), event)
}

// EmitContext 与 Emit 相同，ctx 取消时放弃尚未完成的投递并返回 ctx.Err()
func (h *Hub[T]) EmitContext(ctx context.Context, event T) error {
	if h.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.RLock()
	sinks := make([]*Subscription[T], len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.RUnlock()

	for _, sub := range sinks {
		select {
		case sub.out <- event:
		case <-sub.done:
		case <-h.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Len 返回订阅者数量
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// Close 关闭总线并结束所有订阅
func (h *Hub[T]) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	close(h.done)

	h.mu.Lock()
	sinks := h.sinks
	h.sinks = nil
	h.mu.Unlock()

	for _, sub := range sinks {
		sub.Close()
	}
	logger.Debug("事件总线已关闭", "subscribers", len(sinks))
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	removed := false
	for i, s := range h.sinks {
		if s == sub {
			h.sinks = append(h.sinks[:i], h.sinks[i+1:]...)
			removed = true
			break
		}
	}
	n := len(h.sinks)
	hooks := h.onChange
	h.mu.Unlock()

	if removed {
		for _, fn := range hooks {
			fn(n)
		}
	}
}

// ============================================================================
//                              Subscription
// ============================================================================

// Subscription 订阅
type Subscription[T any] struct {
	hub       *Hub[T]
	out       chan T
	done      chan struct{}
	closeOnce sync.Once
}

// Out 返回事件通道
func (s *Subscription[T]) Out() <-chan T {
	return s.out
}

// Done 订阅结束时关闭
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close 取消订阅，可重复调用
//
// 等待进行中的发射结束后关闭 Out 通道。
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.remove(s)

		s.hub.emitMu.Lock()
		close(s.out)
		s.hub.emitMu.Unlock()
	})
}
