// Package coordinator 实现设备发现协调器
//
// 协调器按环境（通道开关、局域网可达性、无线开关）在五种策略之间切换：
//
//	None
//	LANOnly / RadioOnly
//	LANPrimaryRadioSecondary / RadioPrimaryLANSecondary
//
// 双通道策略先启动主通道扫描器，次通道在宽限期后启动；宽限期内策略
// 发生变化则次通道不再启动。
//
// 各扫描器的原始发现按合并键（对端广播的设备 ID，缺省为通道内标识）
// 合并到同一条 UnifiedDevice 记录：
//
//	Transports  取并集，只增不减
//	LastSeen    取最大值
//	Attributes  按通道标记合并
//	QualityScore 由 quality.DeviceScore 重新计算
//
// 缓存容量由 MaxDevices 限制。容量已满时只淘汰超过 DiscoveryTimeout
// 未出现的最旧记录，否则丢弃新设备的发现。
//
// StartDiscovery 返回惰性设备流：首个订阅者启动扫描，最后一个订阅者
// 离开时停止扫描。
package coordinator
