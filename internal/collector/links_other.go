//go:build !linux

package collector

import (
	"context"
	"fmt"
	"net/netip"

	psnet "github.com/shirou/gopsutil/v4/net"
)

// PSInspector lists interface addresses through gopsutil. Routing tables and
// bonds are not visible here, so classification falls back to addresses.
type PSInspector struct{}

func NewLinkInspector() LinkInspector { return PSInspector{} }

func (PSInspector) Links(ctx context.Context) (map[string]LinkInfo, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make(map[string]LinkInfo, len(ifaces))
	for _, iface := range ifaces {
		info := LinkInfo{}
		for _, a := range iface.Addrs {
			if p, err := netip.ParsePrefix(a.Addr); err == nil {
				info.Facts.Addrs = append(info.Facts.Addrs, p.Addr())
			}
		}
		out[iface.Name] = info
	}
	return out, nil
}
