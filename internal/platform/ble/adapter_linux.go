//go:build linux

package ble

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// stopRetry StopScan 在扫描真正开始前会失败，按此间隔重试
const stopRetry = 50 * time.Millisecond

// Adapter BlueZ 适配器
type Adapter struct {
	adapter *bluetooth.Adapter

	mu      sync.Mutex
	enabled bool
}

// NewAdapter 创建适配器，id 为空时使用 hci0
func NewAdapter(id string) *Adapter {
	if id == "" || id == DefaultAdapterID {
		return &Adapter{adapter: bluetooth.DefaultAdapter}
	}
	return &Adapter{adapter: bluetooth.NewAdapter(id)}
}

// Enable 打开适配器，可重复调用
func (a *Adapter) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		return nil
	}
	if err := a.adapter.Enable(); err != nil {
		return err
	}
	a.enabled = true
	return nil
}

// Enabled 最近一次 Enable 是否成功
//
// 只读取状态，不会打开适配器。
func (a *Adapter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Scan 扫描广播直到 ctx 取消
func (a *Adapter) Scan(ctx context.Context, fn func(Advertisement)) error {
	if err := a.Enable(); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		for {
			if err := a.adapter.StopScan(); err == nil {
				return
			}
			select {
			case <-stop:
				return
			case <-time.After(stopRetry):
			}
		}
	}()

	return a.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		if ctx.Err() != nil {
			return
		}
		fn(Advertisement{
			Address:   r.Address.String(),
			LocalName: r.LocalName(),
			RSSI:      int(r.RSSI),
		})
	})
}

// Connect 连接对端，返回的 Closer 断开连接
func (a *Adapter) Connect(ctx context.Context, address string) (io.Closer, error) {
	if err := a.Enable(); err != nil {
		return nil, err
	}
	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, fmt.Errorf("ble: parse address %q: %w", address, err)
	}

	type result struct {
		closer io.Closer
		err    error
	}
	resc := make(chan result, 1)
	go func() {
		dev, err := a.adapter.Connect(bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, bluetooth.ConnectionParams{})
		if err != nil {
			resc <- result{err: err}
			return
		}
		resc <- result{closer: closerFunc(func() error { return dev.Disconnect() })}
	}()

	select {
	case r := <-resc:
		return r.closer, r.err
	case <-ctx.Done():
		// 迟到的连接直接断开
		go func() {
			if r := <-resc; r.closer != nil {
				if err := r.closer.Close(); err != nil {
					logger.Debug("断开迟到的连接失败", "address", address, "error", err)
				}
			}
		}()
		return nil, ctx.Err()
	}
}
