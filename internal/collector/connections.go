package collector

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/system"
	"housekeeper/internal/topk"
)

const (
	fieldSent = "sent"
	fieldRecv = "recv"
)

// Conn is one established TCP connection with cumulative byte counters.
type Conn struct {
	Local      netip.Addr
	LocalPort  uint16
	Remote     netip.Addr
	RemotePort uint16
	BytesSent  uint64
	BytesRecv  uint64
}

func (c Conn) key() string {
	return c.Local.String() + "|" + strconv.Itoa(int(c.LocalPort)) + "|" +
		c.Remote.String() + "|" + strconv.Itoa(int(c.RemotePort))
}

// ConnLister enumerates established TCP connections.
type ConnLister interface {
	Connections(ctx context.Context) ([]Conn, error)
}

// ConnectionsCollector aggregates per-connection byte rates by remote IP.
type ConnectionsCollector struct {
	lister ConnLister
	clk    clock.Clock
	store  *rate.Store
	topN   int
	logger *slog.Logger
}

func NewConnectionsCollector(lister ConnLister, clk clock.Clock, topN int, logger *slog.Logger) *ConnectionsCollector {
	return &ConnectionsCollector{
		lister: lister,
		clk:    clk,
		store:  rate.NewStore(),
		topN:   topN,
		logger: logger.With("collector", "connections"),
	}
}

func (c *ConnectionsCollector) Probe(ctx context.Context) bool {
	_, err := c.lister.Connections(ctx)
	return err == nil
}

func (c *ConnectionsCollector) Collect(ctx context.Context) []model.IPTraffic {
	at := c.clk.Now()
	conns, err := c.lister.Connections(ctx)
	if err != nil {
		c.logger.Warn("connection table unavailable", "error", err)
	}

	snap := rate.NewSnapshot(at)
	remoteOf := make(map[string]string, len(conns))
	for _, conn := range conns {
		if skipConn(conn) {
			continue
		}
		k := conn.key()
		snap.Set(k, fieldSent, float64(conn.BytesSent))
		snap.Set(k, fieldRecv, float64(conn.BytesRecv))
		remoteOf[k] = conn.Remote.String()
	}
	rec := c.store.ReadAndAdvance(snap)

	byIP := map[string]*model.IPTraffic{}
	var order []string
	for _, k := range rec.Keys() {
		ip := remoteOf[k]
		agg, ok := byIP[ip]
		if !ok {
			agg = &model.IPTraffic{RemoteIP: ip}
			byIP[ip] = agg
			order = append(order, ip)
		}
		agg.Connections++
		agg.SentBytesPerSec += rec.Get(k, fieldSent)
		agg.RecvBytesPerSec += rec.Get(k, fieldRecv)
	}

	items := make([]topk.Item[model.IPTraffic], 0, len(order))
	for _, ip := range order {
		agg := byIP[ip]
		agg.TotalBytesPerSec = agg.SentBytesPerSec + agg.RecvBytesPerSec
		items = append(items, topk.Item[model.IPTraffic]{Score: agg.TotalBytesPerSec, Value: *agg})
	}
	top := topk.Select(items, c.topN)
	out := make([]model.IPTraffic, len(top))
	for i, it := range top {
		out[i] = it.Value
	}
	return out
}

// skipConn drops loopback peers and connections to this host's own address.
func skipConn(c Conn) bool {
	if c.Remote.IsLoopback() {
		return true
	}
	return c.Local == c.Remote
}

// SSLister parses `ss -tni state established`.
type SSLister struct {
	runner system.Runner
}

func NewSSLister(runner system.Runner) *SSLister {
	return &SSLister{runner: runner}
}

func (s *SSLister) Connections(ctx context.Context) ([]Conn, error) {
	out, err := s.runner.Run(ctx, "ss", "-tni", "state", "established")
	if err != nil {
		return nil, err
	}
	return parseSS(out), nil
}

var (
	ssBytesSent = regexp.MustCompile(`bytes_sent:(\d+)`)
	ssBytesRecv = regexp.MustCompile(`bytes_received:(\d+)`)
)

// parseSS reads connection lines followed by tab-indented detail lines.
// Without a state filter column the layout is Recv-Q Send-Q Local Peer.
func parseSS(out []byte) []Conn {
	var (
		conns   []Conn
		pending *Conn
	)
	flush := func() {
		if pending != nil {
			conns = append(conns, *pending)
			pending = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "Recv-Q") || strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, " ") {
			if pending != nil {
				if m := ssBytesSent.FindStringSubmatch(line); m != nil {
					pending.BytesSent, _ = strconv.ParseUint(m[1], 10, 64)
				}
				if m := ssBytesRecv.FindStringSubmatch(line); m != nil {
					pending.BytesRecv, _ = strconv.ParseUint(m[1], 10, 64)
				}
			}
			continue
		}

		flush()
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		local, err := netip.ParseAddrPort(fields[2])
		if err != nil {
			continue
		}
		remote, err := netip.ParseAddrPort(fields[3])
		if err != nil {
			continue
		}
		pending = &Conn{
			Local:      local.Addr().Unmap(),
			LocalPort:  local.Port(),
			Remote:     remote.Addr().Unmap(),
			RemotePort: remote.Port(),
		}
	}
	flush()
	return conns
}

// FallbackLister tries primary first and uses secondary when it fails.
type FallbackLister struct {
	Primary   ConnLister
	Secondary ConnLister
	Logger    *slog.Logger
}

func (f FallbackLister) Connections(ctx context.Context) ([]Conn, error) {
	if f.Primary != nil {
		conns, err := f.Primary.Connections(ctx)
		if err == nil {
			return conns, nil
		}
		if f.Logger != nil {
			f.Logger.Debug("primary connection lister failed", "error", err)
		}
	}
	return f.Secondary.Connections(ctx)
}
