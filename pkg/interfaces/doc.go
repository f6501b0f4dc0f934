// Package interfaces 定义平台原语的接口
//
// 发现与连接核心只通过这些接口访问平台：
//   - scanner.go     - TransportScanner 通道扫描器
//   - transport.go   - Dialer 连接原语、QualityProber 质量探测
//   - environment.go - ReachabilityOracle 网络可达性、RadioOracle 无线开关
//
// mocks 子包提供 gomock 生成的实现，供测试使用。
package interfaces
