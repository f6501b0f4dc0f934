package lan

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("transport/lan")

// DialFunc 建立底层连接
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Dialer 局域网连接原语
//
// 对设备的 lan 端点建立 TCP 连接并作为 yamux 客户端协商会话，
// 会话即连接句柄。
type Dialer struct {
	config *Config
	dial   DialFunc
}

var _ interfaces.Dialer = (*Dialer)(nil)

// NewDialer 创建局域网拨号器，dial 为 nil 时使用 net.Dialer
func NewDialer(config *Config, dial DialFunc) *Dialer {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if dial == nil {
		d := &net.Dialer{Timeout: config.DialTimeout, KeepAlive: config.KeepAliveInterval}
		dial = d.DialContext
	}
	return &Dialer{config: config, dial: dial}
}

// Transport 返回 lan
func (d *Dialer) Transport() types.Transport {
	return types.TransportLAN
}

// Open 建立到设备的会话
func (d *Dialer) Open(ctx context.Context, device types.UnifiedDevice) (interfaces.Handle, error) {
	addr := device.Endpoint(types.TransportLAN)
	if addr == "" {
		return nil, ErrNoEndpoint
	}

	conn, err := d.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("lan: dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	session, err := yamux.Client(conn, d.config.yamuxConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("lan: negotiate session: %w", err)
	}

	logger.Debug("局域网会话已建立",
		"device", log.TruncateID(device.ID, 8),
		"addr", addr)
	return session, nil
}

// Serve 以 yamux 服务端接受对端的会话
//
// 每个入站连接协商成功后交给 handle，ctx 取消或监听器关闭时返回。
func Serve(ctx context.Context, ln net.Listener, config *Config, handle func(*yamux.Session)) error {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		session, err := yamux.Server(conn, config.yamuxConfig())
		if err != nil {
			logger.Debug("入站会话协商失败", "remote", conn.RemoteAddr(), "error", err)
			conn.Close()
			continue
		}
		go handle(session)
	}
}
