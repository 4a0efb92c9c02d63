//go:build linux

package collector

import (
	"context"
	"fmt"
	"net/netip"
	"sort"

	"github.com/vishvananda/netlink"
)

// NetlinkInspector reads default routes, addresses and bonds over rtnetlink.
type NetlinkInspector struct{}

func NewLinkInspector() LinkInspector { return NetlinkInspector{} }

func (NetlinkInspector) Links(context.Context) (map[string]LinkInfo, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	defaults := map[int]bool{}
	if routes, err := netlink.RouteList(nil, netlink.FAMILY_ALL); err == nil {
		for _, r := range routes {
			if isDefaultRoute(r) {
				defaults[r.LinkIndex] = true
			}
		}
	}

	byIndex := make(map[int]string, len(links))
	for _, l := range links {
		byIndex[l.Attrs().Index] = l.Attrs().Name
	}

	out := make(map[string]LinkInfo, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		if attrs.Name == "lo" {
			continue
		}
		info := LinkInfo{}
		info.Facts.DefaultRoute = defaults[attrs.Index]
		if addrs, err := netlink.AddrList(l, netlink.FAMILY_ALL); err == nil {
			for _, a := range addrs {
				if a.IPNet == nil {
					continue
				}
				if ip, ok := netip.AddrFromSlice(a.IPNet.IP); ok {
					info.Facts.Addrs = append(info.Facts.Addrs, ip.Unmap())
				}
			}
		}
		if bond, ok := l.(*netlink.Bond); ok {
			info.IsBond = true
			info.BondMode = bond.Mode.String()
		}
		if attrs.MasterIndex > 0 {
			info.Master = byIndex[attrs.MasterIndex]
		}
		out[attrs.Name] = info
	}

	// members are only known from the member side
	for name, info := range out {
		if info.Master == "" {
			continue
		}
		master, ok := out[info.Master]
		if !ok || !master.IsBond {
			// bridge ports are not bond members
			info.Master = ""
			out[name] = info
			continue
		}
		master.Members = append(master.Members, name)
		out[info.Master] = master
	}
	for name, info := range out {
		if len(info.Members) > 1 {
			sort.Strings(info.Members)
			out[name] = info
		}
	}
	return out, nil
}

func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0
}
