// Package reachability 提供网络可达性判断
//
// PollingOracle 按 Interval 轮询系统网卡，存在启用、非回环且带可路由地址的
// 网卡时认为网络可用；状态变化时通知订阅者。网卡集合以指纹比较，
// 地址变化但可用性不变时不通知。
//
// Static 是固定结果的实现，用于测试和无网卡监听的环境。
package reachability
