// Package metrics 提供 Prometheus 运行指标
//
// Collector 覆盖三类指标：
//   - 发现：设备数量、合并的发现次数、因容量丢弃的发现
//   - 连接：活跃连接、打开尝试、失败类别、断开、切换与限流、重连安排
//   - 质量：按通道的最新质量评分
//
// 指标关闭时模块提供 nil *Collector，其方法均为空操作。
package metrics
