// Package radio 实现无线通道的设备发现
//
// 对端在广播名称中携带 "显示名#设备ID"，扫描器据此填充 RawSighting 的
// DeviceID，使同一设备在无线与局域网上的发现能够合并。
package radio
