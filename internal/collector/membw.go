package collector

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/system"
)

const (
	fieldMBMTotal = "mbm_total_bytes"
	fieldMBMLocal = "mbm_local_bytes"
)

// MemBandwidthCollector sums the resctrl memory bandwidth monitoring
// counters of every L3 domain. It only reads mon_data; it never creates
// monitoring groups or touches control files.
type MemBandwidthCollector struct {
	fs     system.FS
	clk    clock.Clock
	store  *rate.Store
	logger *slog.Logger
}

func NewMemBandwidthCollector(fs system.FS, clk clock.Clock, logger *slog.Logger) *MemBandwidthCollector {
	return &MemBandwidthCollector{fs: fs, clk: clk, store: rate.NewStore(), logger: logger.With("collector", "membw")}
}

func (c *MemBandwidthCollector) monData() string {
	return c.fs.Sys("fs", "resctrl", "mon_data")
}

func (c *MemBandwidthCollector) domains() []string {
	var out []string
	for _, name := range system.ListDir(c.monData()) {
		if strings.HasPrefix(name, "mon_L3_") {
			out = append(out, filepath.Join(c.monData(), name))
		}
	}
	return out
}

// Probe requires resctrl mounted with at least one domain exposing
// mbm_total_bytes.
func (c *MemBandwidthCollector) Probe(context.Context) bool {
	for _, d := range c.domains() {
		if _, ok := system.ReadUint(filepath.Join(d, fieldMBMTotal)); ok {
			return true
		}
	}
	return false
}

// Collect keys each L3 domain separately so a domain that reads
// "Unavailable" for a pass restarts as first-seen instead of skewing the sum.
func (c *MemBandwidthCollector) Collect(context.Context) *model.MemBandwidth {
	snap := rate.NewSnapshot(c.clk.Now())
	var seen int
	for _, d := range c.domains() {
		t, ok := system.ReadUint(filepath.Join(d, fieldMBMTotal))
		if !ok {
			// "Unavailable" while the counter is being reassigned
			continue
		}
		seen++
		key := filepath.Base(d)
		snap.Set(key, fieldMBMTotal, float64(t))
		if l, ok := system.ReadUint(filepath.Join(d, fieldMBMLocal)); ok {
			snap.Set(key, fieldMBMLocal, float64(l))
		}
	}
	if seen == 0 {
		return nil
	}
	rec := c.store.ReadAndAdvance(snap)
	return &model.MemBandwidth{
		TotalBytesPerSec: rate.Sum(rec, fieldMBMTotal),
		LocalBytesPerSec: rate.Sum(rec, fieldMBMLocal),
		Domains:          seen,
	}
}
