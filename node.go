package nearlink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/internal/core/connmgr"
	"github.com/dep2p/go-nearlink/internal/core/metrics"
	"github.com/dep2p/go-nearlink/internal/discovery/coordinator"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("nearlink")

const (
	// startTimeout 启动 Fx 应用的默认超时
	startTimeout = 30 * time.Second

	// stopTimeout 关闭 Fx 应用的超时
	stopTimeout = 15 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node 近场连接节点
//
// 聚合发现协调器与连接协调器：发现流中的设备快照会同步给连接协调器，
// 供通道选择与重连使用。
type Node struct {
	config *config.Config
	app    *fx.App

	discovery *coordinator.Coordinator
	conns     *connmgr.Coordinator
	metrics   *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New 创建并启动节点
//
// 示例：
//
//	node, err := nearlink.New(ctx, nearlink.WithPreset("mobile"))
//	if err != nil {
//	    return err
//	}
//	defer node.Close()
//
//	devices, _ := node.Devices(ctx)
//	for d := range devices {
//	    _ = node.Connect(ctx, d)
//	}
func New(ctx context.Context, opts ...Option) (*Node, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}

	nctx, cancel := context.WithCancel(context.Background())
	node := &Node{config: cfg, ctx: nctx, cancel: cancel}

	node.app, err = buildFxApp(o, cfg, node)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := node.app.Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	startCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var startCancel context.CancelFunc
		startCtx, startCancel = context.WithTimeout(ctx, startTimeout)
		defer startCancel()
	}
	if err := node.app.Start(startCtx); err != nil {
		cancel()
		logger.Error("节点启动失败", "error", err)
		return nil, fmt.Errorf("start: %w", err)
	}

	logger.Info("节点已启动",
		"lan", cfg.Discovery.WiFiEnabled,
		"radio", cfg.Discovery.BLEEnabled,
		"strategy", node.discovery.Strategy())
	return node, nil
}

// Config 返回节点配置的副本
func (n *Node) Config() *config.Config {
	return config.CloneConfig(n.config)
}

// Metrics 返回指标收集器，未启用时为 nil
func (n *Node) Metrics() *metrics.Collector {
	return n.metrics
}

// ════════════════════════════════════════════════════════════════════════════
//                              发现
// ════════════════════════════════════════════════════════════════════════════

// Devices 返回合并后的设备流
//
// 首个流打开时启动扫描，所有流关闭后停止扫描。流中的每个设备同时
// 更新连接协调器中的设备快照。ctx 取消或节点关闭时通道关闭。
func (n *Node) Devices(ctx context.Context) (<-chan types.UnifiedDevice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNodeClosed
	}

	src, err := n.discovery.StartDiscovery(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan types.UnifiedDevice, n.config.Discovery.StreamBuffer)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-n.ctx.Done():
				return
			case d, ok := <-src:
				if !ok {
					return
				}
				n.conns.UpdateDevice(d)
				select {
				case out <- d:
				case <-ctx.Done():
					return
				case <-n.ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// DiscoveredDevices 返回当前设备列表，按质量评分降序
func (n *Node) DiscoveredDevices() []types.UnifiedDevice {
	return n.discovery.Devices()
}

// Device 返回指定设备
func (n *Node) Device(id string) (types.UnifiedDevice, bool) {
	return n.discovery.Device(id)
}

// ClearDevices 清空设备列表
func (n *Node) ClearDevices() {
	n.discovery.ClearDevices()
}

// SetTransportsEnabled 启用或禁用通道的发现
func (n *Node) SetTransportsEnabled(lan, radio bool) {
	n.discovery.SetEnabled(lan, radio)
}

// Strategy 返回当前发现策略
func (n *Node) Strategy() types.DiscoveryStrategy {
	return n.discovery.Strategy()
}

// Scanning 是否有扫描在进行
func (n *Node) Scanning() bool {
	return n.discovery.Running()
}

// ════════════════════════════════════════════════════════════════════════════
//                              连接
// ════════════════════════════════════════════════════════════════════════════

// Connect 连接设备
func (n *Node) Connect(ctx context.Context, device types.UnifiedDevice) error {
	if n.isClosed() {
		return ErrNodeClosed
	}
	return n.conns.Connect(ctx, device)
}

// ConnectByID 按发现列表中的快照连接设备
func (n *Node) ConnectByID(ctx context.Context, id string) error {
	d, ok := n.discovery.Device(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return n.Connect(ctx, d)
}

// Disconnect 断开设备
func (n *Node) Disconnect(ctx context.Context, id string) error {
	if n.isClosed() {
		return ErrNodeClosed
	}
	return n.conns.Disconnect(ctx, id)
}

// SwitchTransport 手动把设备切换到指定通道
func (n *Node) SwitchTransport(ctx context.Context, id string, target types.Transport) error {
	if n.isClosed() {
		return ErrNodeClosed
	}
	return n.conns.SwitchTransport(ctx, id, target)
}

// Events 订阅连接事件
//
// buffer 为 0 时使用配置的默认缓冲。返回的函数取消订阅并关闭通道。
func (n *Node) Events(buffer int) (<-chan types.ConnectionEvent, func(), error) {
	if n.isClosed() {
		return nil, nil, ErrNodeClosed
	}
	sub, err := n.conns.Subscribe(n.ctx, buffer)
	if err != nil {
		return nil, nil, err
	}
	return sub.Out(), sub.Close, nil
}

// ConnectionState 返回设备连接状态
func (n *Node) ConnectionState(id string) types.ConnectionState {
	return n.conns.ConnectionState(id)
}

// ActiveTransport 返回设备当前使用的通道
func (n *Node) ActiveTransport(id string) (types.Transport, bool) {
	return n.conns.ActiveTransport(id)
}

// ActiveConnections 返回所有活跃连接
func (n *Node) ActiveConnections() []types.Connection {
	return n.conns.ActiveConnections()
}

// ConnectionQuality 返回设备最近一次质量样本
func (n *Node) ConnectionQuality(id string) (types.QualitySample, bool) {
	return n.conns.ConnectionQuality(id)
}

// QualityScore 返回设备连接质量评分，无样本时为 0
func (n *Node) QualityScore(id string) float64 {
	return n.conns.QualityScore(id)
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Close 关闭节点
//
// 结束所有设备流，停止扫描，关闭全部连接。可重复调用。
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	logger.Info("正在关闭节点")
	n.cancel()
	n.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("节点关闭出错", "error", err)
		return fmt.Errorf("stop: %w", err)
	}
	logger.Info("节点已关闭")
	return nil
}

func (n *Node) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}
