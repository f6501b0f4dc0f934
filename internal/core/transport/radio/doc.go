// Package radio 实现无线通道的连接与质量探测
//
// 连接通过平台适配器按设备的无线地址建立；质量探测使用 quality.RadioEstimate 标称值。
package radio
