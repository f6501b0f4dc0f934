package reachability

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"sort"
	"strings"
)

// Interface 网卡快照
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.IP
}

// Lister 列出当前网卡
type Lister func() ([]Interface, error)

// SystemInterfaces 通过 net.Interfaces 读取系统网卡
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		info := Interface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		addrs, err := iface.Addrs()
		if err == nil {
			for _, a := range addrs {
				if ipnet, ok := a.(*net.IPNet); ok {
					info.Addrs = append(info.Addrs, ipnet.IP)
				}
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// Usable 是否存在可用于局域网通信的网卡
//
// 要求网卡启用、非回环，且带有非链路本地的 IPv4 地址或全局单播 IPv6 地址。
func Usable(ifaces []Interface) bool {
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback {
			continue
		}
		for _, ip := range iface.Addrs {
			if usableAddr(ip) {
				return true
			}
		}
	}
	return false
}

// UsableAddrs 返回所有可用于局域网通信的地址
func UsableAddrs(ifaces []Interface) []net.IP {
	var out []net.IP
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback {
			continue
		}
		for _, ip := range iface.Addrs {
			if usableAddr(ip) {
				out = append(out, ip)
			}
		}
	}
	return out
}

func usableAddr(ip net.IP) bool {
	if ip == nil || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		return !v4.IsLinkLocalUnicast()
	}
	return ip.IsGlobalUnicast()
}

// fingerprint 计算网卡集合的指纹，用于识别变化
func fingerprint(ifaces []Interface) string {
	parts := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Loopback {
			continue
		}
		addrs := make([]string, 0, len(iface.Addrs))
		for _, ip := range iface.Addrs {
			addrs = append(addrs, ip.String())
		}
		sort.Strings(addrs)
		state := "down"
		if iface.Up {
			state = "up"
		}
		parts = append(parts, iface.Name+":"+state+":["+strings.Join(addrs, ",")+"]")
	}
	sort.Strings(parts)

	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}
