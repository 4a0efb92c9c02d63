package collector

import (
	"context"
	"log/slog"
	"strings"

	"housekeeper/internal/classify"
	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

const (
	fieldReadBytes  = "read_bytes"
	fieldWriteBytes = "write_bytes"
	fieldReadOps    = "read_ops"
	fieldWriteOps   = "write_ops"

	shortDeviceMax = 25
)

// NetFSCollector reports network filesystem mounts and, for NFS, their byte
// and operation rates from mountstats.
type NetFSCollector struct {
	src    source.MountSource
	clk    clock.Clock
	store  *rate.Store
	logger *slog.Logger
}

func NewNetFSCollector(src source.MountSource, clk clock.Clock, logger *slog.Logger) *NetFSCollector {
	return &NetFSCollector{src: src, clk: clk, store: rate.NewStore(), logger: logger.With("collector", "netfs")}
}

// Probe reports whether any network mount exists right now. Mounts come and
// go, so the UI calls this again periodically.
func (c *NetFSCollector) Probe(ctx context.Context) bool {
	mounts, err := c.src.Mounts(ctx)
	if err != nil {
		return false
	}
	for _, m := range mounts {
		if classify.IsNetFS(m.FSType) {
			return true
		}
	}
	return false
}

func (c *NetFSCollector) Collect(ctx context.Context) []model.NetMount {
	at := c.clk.Now()
	mounts, err := c.src.Mounts(ctx)
	if err != nil {
		c.logger.Warn("mount table unavailable", "error", err)
	}

	snap := rate.NewSnapshot(at)
	var net []source.Mount
	for _, m := range mounts {
		if !classify.IsNetFS(m.FSType) {
			continue
		}
		net = append(net, m)
		if m.HasStats {
			snap.Set(m.MountPoint, fieldReadBytes, float64(m.ReadBytes))
			snap.Set(m.MountPoint, fieldWriteBytes, float64(m.WriteBytes))
			snap.Set(m.MountPoint, fieldReadOps, float64(m.ReadOps))
			snap.Set(m.MountPoint, fieldWriteOps, float64(m.WriteOps))
		}
	}
	rec := c.store.ReadAndAdvance(snap)

	out := make([]model.NetMount, 0, len(net))
	for _, m := range net {
		out = append(out, model.NetMount{
			MountPoint:       m.MountPoint,
			Device:           m.Device,
			ShortDevice:      shortDevice(m.Device),
			FSType:           m.FSType,
			Label:            classify.NetFSLabel(m.FSType),
			HasStats:         m.HasStats,
			ReadBytesPerSec:  rec.Get(m.MountPoint, fieldReadBytes),
			WriteBytesPerSec: rec.Get(m.MountPoint, fieldWriteBytes),
			ReadOpsPerSec:    rec.Get(m.MountPoint, fieldReadOps),
			WriteOpsPerSec:   rec.Get(m.MountPoint, fieldWriteOps),
		})
	}
	return out
}

// shortDevice keeps only the last path element of long export names.
func shortDevice(dev string) string {
	if len(dev) <= shortDeviceMax {
		return dev
	}
	if i := strings.LastIndex(dev, "/"); i >= 0 {
		return ".../" + dev[i+1:]
	}
	return dev
}
