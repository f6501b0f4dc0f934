package radio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dep2p/go-nearlink/internal/platform/ble"
	"github.com/dep2p/go-nearlink/pkg/interfaces"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("transport/radio")

// ErrNoEndpoint 设备没有无线地址
var ErrNoEndpoint = fmt.Errorf("radio: device has no radio endpoint")

// Connector 建立无线连接，默认实现为 *ble.Adapter
type Connector interface {
	Connect(ctx context.Context, address string) (io.Closer, error)
}

var _ Connector = (*ble.Adapter)(nil)

// ============================================================================
//                              Dialer
// ============================================================================

// Dialer 无线连接原语
type Dialer struct {
	connector Connector
	timeout   time.Duration
}

var _ interfaces.Dialer = (*Dialer)(nil)

// NewDialer 创建无线拨号器，timeout <= 0 表示只受调用方 ctx 约束
func NewDialer(connector Connector, timeout time.Duration) *Dialer {
	return &Dialer{connector: connector, timeout: timeout}
}

// Transport 返回 radio
func (d *Dialer) Transport() types.Transport {
	return types.TransportRadio
}

// Open 连接设备的无线地址
func (d *Dialer) Open(ctx context.Context, device types.UnifiedDevice) (interfaces.Handle, error) {
	addr := device.Endpoint(types.TransportRadio)
	if addr == "" {
		return nil, ErrNoEndpoint
	}
	if d.connector == nil {
		return nil, types.ErrUnsupported
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	h, err := d.connector.Connect(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("radio: connect %s: %w", addr, err)
	}
	logger.Debug("无线连接已建立",
		"device", log.TruncateID(device.ID, 8),
		"addr", addr)
	return h, nil
}
