// Package types 定义 nearlink 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - enums.go      - Transport, TransportSet, DeviceClass, Capability,
//     ConnectionState, DiscoveryStrategy, SwitchReason
//   - device.go     - UnifiedDevice, RawSighting, Attribute
//   - connection.go - Connection, QualitySample
//   - events.go     - ConnectionEvent
//   - errors.go     - 公共错误与 ErrorKind
package types
