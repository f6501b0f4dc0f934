package reachability

import (
	"sync"
)

type subscription struct {
	id          uint64
	onAvailable func()
	onLost      func()
}

// subscribers 可达性变化回调表
type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

func (s *subscribers) add(onAvailable, onLost func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, onAvailable: onAvailable, onLost: onLost})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// notify 在锁外依次调用回调，单个回调 panic 不影响其他订阅者
func (s *subscribers) notify(available bool) {
	s.mu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		fn := sub.onLost
		if available {
			fn = sub.onAvailable
		}
		if fn == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("可达性回调 panic", "panic", r)
				}
			}()
			fn()
		}()
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
