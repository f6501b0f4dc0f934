// Package lan 实现局域网通道的连接与质量探测
//
// 连接方向：
//
//	Dialer.Open → TCP 拨号 → yamux 客户端会话（连接句柄）
//	Serve       → 接受 TCP → yamux 服务端会话
//
// Prober 以会话 Ping 测量延迟、丢包与抖动，吞吐量按标称值估算。
package lan
