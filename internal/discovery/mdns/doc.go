// Package mdns 实现局域网通道的设备发现
//
// Scanner 周期性查询 mDNS 服务类型（默认 _nearlink._tcp），把应答转换为
// RawSighting。TXT 字段约定：
//
//	id=<设备 ID>
//	name=<显示名>
//	class=phone|tablet|desktop|laptop|watch|tv
//	caps=clipboard_sync,file_transfer
//	battery=<0-100>
//
// 其余 TXT 字段作为属性原样上报。Advertiser 使用同样的字段广播本机。
package mdns
