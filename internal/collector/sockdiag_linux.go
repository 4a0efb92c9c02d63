//go:build linux

package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"housekeeper/internal/system"
)

// SockDiagLister reads established TCP sockets through NETLINK_SOCK_DIAG,
// including tcp_info byte counters.
type SockDiagLister struct{}

func (SockDiagLister) Connections(context.Context) ([]Conn, error) {
	var out []Conn
	for _, family := range []uint8{unix.AF_INET, unix.AF_INET6} {
		msgs, err := netlink.SocketDiagTCPInfo(family)
		if err != nil {
			return nil, fmt.Errorf("sock_diag family %d: %w", family, err)
		}
		for _, m := range msgs {
			if m == nil || m.InetDiagMsg == nil || m.TCPInfo == nil {
				continue
			}
			if m.InetDiagMsg.State != netlink.TCP_ESTABLISHED {
				continue
			}
			id := m.InetDiagMsg.ID
			local, ok1 := netip.AddrFromSlice(id.Source)
			remote, ok2 := netip.AddrFromSlice(id.Destination)
			if !ok1 || !ok2 {
				continue
			}
			out = append(out, Conn{
				Local:      local.Unmap(),
				LocalPort:  id.SourcePort,
				Remote:     remote.Unmap(),
				RemotePort: id.DestinationPort,
				BytesSent:  m.TCPInfo.Bytes_acked,
				BytesRecv:  m.TCPInfo.Bytes_received,
			})
		}
	}
	return out, nil
}

// NewConnLister prefers sock_diag and falls back to ss.
func NewConnLister(runner system.Runner, logger *slog.Logger) ConnLister {
	return FallbackLister{Primary: SockDiagLister{}, Secondary: NewSSLister(runner), Logger: logger}
}
