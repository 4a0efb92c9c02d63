package classify

import (
	"net/netip"
	"strings"
)

type NetType string

const (
	NetWAN     NetType = "WAN"
	NetLAN     NetType = "LAN"
	NetVirtual NetType = "VIR"
	NetUnknown NetType = "???"
)

// Order sorts WAN before LAN before virtual before unknown.
func (t NetType) Order() int {
	switch t {
	case NetWAN:
		return 0
	case NetLAN:
		return 1
	case NetVirtual:
		return 2
	default:
		return 3
	}
}

var virtualPrefixes = []string{
	"docker", "veth", "br-", "virbr", "lxc", "flannel", "cni", "calico", "tun", "tap",
}

// LinkFacts is what the routing table and address list say about a link.
type LinkFacts struct {
	DefaultRoute bool
	Addrs        []netip.Addr
}

// Interface classifies a link. First match wins: virtual name prefix,
// default route, private address, public address, then LAN.
func Interface(name string, facts LinkFacts) NetType {
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return NetVirtual
		}
	}
	if facts.DefaultRoute {
		return NetWAN
	}
	for _, a := range facts.Addrs {
		if a.IsPrivate() {
			return NetLAN
		}
	}
	for _, a := range facts.Addrs {
		if a.IsGlobalUnicast() {
			return NetWAN
		}
	}
	return NetLAN
}
