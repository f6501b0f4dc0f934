package mdns

import (
	"fmt"
	"sync"

	hmdns "github.com/hashicorp/mdns"

	"github.com/dep2p/go-nearlink/internal/core/reachability"
)

// Advertiser 在局域网广播本机服务
type Advertiser struct {
	config *Config
	list   reachability.Lister

	mu     sync.Mutex
	server *hmdns.Server
}

// NewAdvertiser 创建广播器，list 为 nil 时读取系统网卡
func NewAdvertiser(config *Config, list reachability.Lister) *Advertiser {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.Clone()
	_ = config.Validate()
	if list == nil {
		list = reachability.SystemInterfaces
	}
	return &Advertiser{config: config, list: list}
}

// Service 构建本机服务记录
func (a *Advertiser) Service() (*hmdns.MDNSService, error) {
	self := a.config.Self
	if self.ID == "" {
		return nil, ErrMissingID
	}

	ifaces, err := a.list()
	if err != nil {
		return nil, fmt.Errorf("mdns: list interfaces: %w", err)
	}
	ips := reachability.UsableAddrs(ifaces)
	if len(ips) == 0 {
		return nil, ErrNoAddresses
	}

	instance := self.Name
	if instance == "" {
		instance = "nearlink-" + self.ID
	}
	return hmdns.NewMDNSService(
		instance,
		a.config.ServiceTag,
		a.config.Domain,
		"",
		a.config.AdvertisePort,
		ips,
		EncodeTXT(self),
	)
}

// Start 开始广播，重复调用无副作用
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	service, err := a.Service()
	if err != nil {
		return err
	}
	server, err := hmdns.NewServer(&hmdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("mdns: start server: %w", err)
	}
	a.server = server

	logger.Info("mDNS 广播已启动",
		"instance", service.Instance,
		"service", a.config.ServiceTag,
		"port", a.config.AdvertisePort)
	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	server := a.server
	a.server = nil
	a.mu.Unlock()

	if server == nil {
		return nil
	}
	logger.Info("mDNS 广播已停止")
	return server.Shutdown()
}
