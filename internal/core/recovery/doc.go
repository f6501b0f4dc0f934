// Package recovery 提供断线重连调度
//
// # 概述
//
// Scheduler 为每个设备维护独立的重连状态：尝试次数与待触发的定时器。
// 连接失败后按指数退避安排下一次尝试，直到成功、次数耗尽或被取消。
//
// # 退避
//
//	delay = min(BaseDelay * BackoffFactor^attempt, MaxDelay)
//
// 默认 1s、2s、4s，最多 3 次。
//
// # 使用示例
//
//	s := recovery.NewScheduler(recovery.DefaultConfig(), clock.New())
//	s.SetConnector(func(ctx context.Context, d types.UnifiedDevice) error {
//	    return connect(ctx, d)
//	})
//	s.Schedule(device.ID, device)
//
//	// 用户主动断开
//	s.Cancel(device.ID)
//
// # 并发
//
// 同一设备任意时刻至多一个待触发任务；再次 Schedule 会先停止旧定时器。
// 定时器由注入的 clock.Clock 创建，测试中可用 clock.NewMock 推进时间。
package recovery
