package connmgr

import (
	"sort"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// DefaultPoolCapacity 默认连接池容量
const DefaultPoolCapacity = 10

// Pool 有界连接池
//
// 以设备 ID 为键，每个设备至多一个连接。容量在创建时固定，
// 满时加入新设备会淘汰 StartTime 最早的连接。
// Pool 不加锁，由 Coordinator 的状态锁串行化。
type Pool struct {
	capacity int
	conns    map[string]*types.Connection
}

// NewPool 创建连接池
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	return &Pool{
		capacity: capacity,
		conns:    make(map[string]*types.Connection, capacity),
	}
}

// Add 加入连接
//
// 返回被替换或被淘汰的连接，调用方负责关闭它。
func (p *Pool) Add(conn *types.Connection) (evicted *types.Connection) {
	if old, ok := p.conns[conn.DeviceID]; ok {
		p.conns[conn.DeviceID] = conn
		return old
	}

	if len(p.conns) >= p.capacity {
		evicted = p.oldest()
		if evicted != nil {
			delete(p.conns, evicted.DeviceID)
		}
	}
	p.conns[conn.DeviceID] = conn
	return evicted
}

// oldest 返回 StartTime 最早的连接，相同时按设备 ID 排序
func (p *Pool) oldest() *types.Connection {
	var out *types.Connection
	for _, c := range p.conns {
		if out == nil || c.StartTime.Before(out.StartTime) ||
			(c.StartTime.Equal(out.StartTime) && c.DeviceID < out.DeviceID) {
			out = c
		}
	}
	return out
}

// Remove 移除连接
func (p *Pool) Remove(deviceID string) (*types.Connection, bool) {
	c, ok := p.conns[deviceID]
	if ok {
		delete(p.conns, deviceID)
	}
	return c, ok
}

// Get 获取连接
func (p *Pool) Get(deviceID string) (*types.Connection, bool) {
	c, ok := p.conns[deviceID]
	return c, ok
}

// All 按 StartTime 升序返回所有连接
func (p *Pool) All() []*types.Connection {
	out := make([]*types.Connection, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Clear 清空连接池，返回被移除的连接
func (p *Pool) Clear() []*types.Connection {
	out := p.All()
	p.conns = make(map[string]*types.Connection, p.capacity)
	return out
}

// Len 返回连接数
func (p *Pool) Len() int {
	return len(p.conns)
}

// Cap 返回容量
func (p *Pool) Cap() int {
	return p.capacity
}
