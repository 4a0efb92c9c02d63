package collector

import (
	"context"
	"log/slog"
	"regexp"

	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

// Whole disks only; partitions and device-mapper nodes are skipped.
var diskNamePattern = regexp.MustCompile(`^(sd[a-z]+|nvme\d+n\d+|vd[a-z]+)$`)

type DiskCollector struct {
	src    source.Source
	store  *rate.Store
	logger *slog.Logger
}

func NewDiskCollector(src source.Source, logger *slog.Logger) *DiskCollector {
	return &DiskCollector{src: src, store: rate.NewStore(), logger: logger.With("collector", "disk")}
}

func (c *DiskCollector) Collect(ctx context.Context) []model.DiskUsage {
	snap, err := c.src.Read(ctx)
	if err != nil {
		c.logger.Warn("disk counters unavailable", "error", err)
	}
	filtered := rate.NewSnapshot(snap.At)
	for name, fields := range snap.Values {
		if diskNamePattern.MatchString(name) {
			filtered.Values[name] = fields
		}
	}
	rec := c.store.ReadAndAdvance(filtered)

	names := rec.Keys()
	out := make([]model.DiskUsage, 0, len(names))
	for _, name := range names {
		f := rec[name]
		out = append(out, model.DiskUsage{
			Name:             name,
			ReadBytesPerSec:  f.Get(source.FieldReadSectors) * rate.SectorBytes,
			WriteBytesPerSec: f.Get(source.FieldWriteSectors) * rate.SectorBytes,
			ReadIOPS:         f.Get(source.FieldReadIOs),
			WriteIOPS:        f.Get(source.FieldWriteIOs),
		})
	}
	return out
}

// IsWholeDisk reports whether a block device name is a disk shown in the
// disk view.
func IsWholeDisk(name string) bool {
	return diskNamePattern.MatchString(name)
}
