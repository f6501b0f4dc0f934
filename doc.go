// Package nearlink 发现近场设备并维护到每个设备的单一连接
//
// 设备可能同时出现在两个不可靠的通道上：近距离无线（radio）和局域网（lan）。
// nearlink 把同一设备在两个通道上的发现合并为一条记录，为每个设备保持
// 恰好一条活跃连接，并在通道质量或网络环境变化时切换通道。
//
// # 快速开始
//
//	node, err := nearlink.New(ctx, nearlink.WithPreset("desktop"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	events, cancel, _ := node.Events(0)
//	defer cancel()
//
//	devices, _ := node.Devices(ctx)
//	for d := range devices {
//	    if err := node.Connect(ctx, d); err != nil {
//	        continue
//	    }
//	}
//
// # 组件结构
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Node                                                    │
//	├──────────────────────────────────────────────────────────┤
//	│  发现协调器        策略选择 / 合并 / 评分                 │
//	│    ├─ mDNS 扫描器（lan）                                 │
//	│    └─ BLE 扫描器（radio）                                │
//	├──────────────────────────────────────────────────────────┤
//	│  连接协调器        选择 / 回退 / 在线切换                 │
//	│    ├─ 连接池                                             │
//	│    ├─ 质量监控（每连接一个采样循环）                     │
//	│    └─ 重连调度（指数退避）                               │
//	├──────────────────────────────────────────────────────────┤
//	│  通道原语          TCP+yamux（lan） / BLE（radio）        │
//	│  环境              网卡轮询可达性 / 无线开关状态          │
//	└──────────────────────────────────────────────────────────┘
//
// 各组件以 Fx 模块组装，WithScanner、WithDialer、WithProber 可替换
// 单个通道的默认原语。
package nearlink
