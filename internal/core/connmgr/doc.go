// Package connmgr 实现连接协调器
//
// # 核心功能
//
// 1. 通道选择与回退
//   - 已有连接质量足够时保持当前通道
//   - 网络可达且质量不足时优先局域网，否则无线电
//   - 首选通道失败后依次尝试设备的其余通道，每个通道使用相同超时
//
// 2. 连接池
//   - 每个设备至多一个活跃连接
//   - 容量固定，满时淘汰最早建立的连接
//
// 3. 通道切换
//   - 质量低于 SwitchThreshold 时切到另一通道
//   - 网络断开时局域网连接切到无线电，网络恢复时按质量与通道优势切回
//   - 切换为先断开、等待 SwitchSettleDelay、再连接；失败时回到原通道
//   - 切换频率受 MaxSwitchesPerMinute 限制
//
// 4. 重连
//   - 连接失败后交给 recovery.Scheduler 按指数退避重试
//   - 用户断开会取消待触发的重连
//
// # 事件
//
// Subscribe 返回的订阅按发生顺序接收 Connected、Disconnected、Failed、
// TransportSwitched。投递是阻塞的，订阅者需要持续读取。
//
// # 快速开始
//
//	c := connmgr.NewCoordinator(connmgr.DefaultConfig(), clock.New(), nil, nil, lanDialer, radioDialer)
//	defer c.Close()
//
//	sub, _ := c.Subscribe(ctx, 0)
//	if err := c.Connect(ctx, device); err != nil {
//	    log.Fatal(err)
//	}
package connmgr
