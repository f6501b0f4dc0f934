package mdns

import (
	"net"
	"strconv"
	"strings"
	"time"

	hmdns "github.com/hashicorp/mdns"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// TXT 记录键
const (
	txtID      = "id"
	txtName    = "name"
	txtClass   = "class"
	txtCaps    = "caps"
	txtBattery = "battery"
)

// AttrHost mDNS 应答中的主机名属性
const AttrHost = "mdns_host"

// Info 本机广播信息
type Info struct {
	ID           string
	Name         string
	Class        types.DeviceClass
	Capabilities []types.Capability
	Battery      *int
}

// EncodeTXT 把广播信息编码为 TXT 字段
func EncodeTXT(info Info) []string {
	txt := []string{txtID + "=" + info.ID}
	if info.Name != "" {
		txt = append(txt, txtName+"="+info.Name)
	}
	if info.Class != types.DeviceClassUnknown {
		txt = append(txt, txtClass+"="+info.Class.String())
	}
	if len(info.Capabilities) > 0 {
		names := make([]string, 0, len(info.Capabilities))
		for _, c := range info.Capabilities {
			names = append(names, c.String())
		}
		txt = append(txt, txtCaps+"="+strings.Join(names, ","))
	}
	if info.Battery != nil {
		txt = append(txt, txtBattery+"="+strconv.Itoa(*info.Battery))
	}
	return txt
}

func parseTXT(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// decodeEntry 把 mDNS 应答转为原始发现
//
// 没有地址或端口的应答被忽略。
func decodeEntry(e *hmdns.ServiceEntry, ts time.Time) (types.RawSighting, bool) {
	if e == nil || e.Port <= 0 {
		return types.RawSighting{}, false
	}
	ip := e.AddrV4
	if ip == nil {
		ip = e.AddrV6
	}
	if ip == nil {
		return types.RawSighting{}, false
	}

	fields := parseTXT(e.InfoFields)
	raw := types.RawSighting{
		TransportLocalID: net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)),
		DeviceID:         fields[txtID],
		Name:             fields[txtName],
		Class:            types.ParseDeviceClass(fields[txtClass]),
		Timestamp:        ts,
		Attributes:       make(map[string]string),
	}
	if raw.Name == "" {
		raw.Name = instanceName(e.Name)
	}
	if caps := fields[txtCaps]; caps != "" {
		for _, name := range strings.Split(caps, ",") {
			if c := types.ParseCapability(name); c != 0 {
				raw.Capabilities = append(raw.Capabilities, c)
			}
		}
	}
	if b, err := strconv.Atoi(fields[txtBattery]); err == nil && b >= 0 && b <= 100 {
		raw.BatteryHint = types.IntPtr(b)
	}
	for k, v := range fields {
		switch k {
		case txtID, txtName, txtClass, txtCaps, txtBattery:
		default:
			raw.Attributes[k] = v
		}
	}
	if e.Host != "" {
		raw.Attributes[AttrHost] = strings.TrimSuffix(e.Host, ".")
	}
	return raw, true
}

// instanceName 从 "实例名._service._tcp.local." 中取出实例名
func instanceName(fqdn string) string {
	name, _, _ := strings.Cut(fqdn, "._")
	return strings.ReplaceAll(name, "\\ ", " ")
}
