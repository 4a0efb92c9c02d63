package collector

import (
	"context"
	"log/slog"
	"sort"

	"housekeeper/internal/clock"
	"housekeeper/internal/libvirt"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
)

const (
	fieldCPUNs     = "cpu_ns"
	fieldDiskRead  = "disk_read"
	fieldDiskWrite = "disk_write"
	fieldNetRx     = "net_rx"
	fieldNetTx     = "net_tx"
)

// DomainLister is satisfied by *libvirt.ConnManager.
type DomainLister interface {
	Domains(ctx context.Context) ([]libvirt.Domain, error)
	Connected() bool
}

// VMCollector reports per-domain CPU, memory, block and network rates. CPU
// is expressed as a share of the whole host, so one busy vCPU on a 64-way
// box shows about 1.6%.
type VMCollector struct {
	lister   DomainLister
	clk      clock.Clock
	hostCPUs int
	store    *rate.Store
	logger   *slog.Logger
}

func NewVMCollector(lister DomainLister, clk clock.Clock, hostCPUs int, logger *slog.Logger) *VMCollector {
	return &VMCollector{
		lister:   lister,
		clk:      clk,
		hostCPUs: max(hostCPUs, 1),
		store:    rate.NewStore(),
		logger:   logger.With("collector", "vm"),
	}
}

func (c *VMCollector) Probe(ctx context.Context) bool {
	_, err := c.lister.Domains(ctx)
	return err == nil
}

func (c *VMCollector) Collect(ctx context.Context) []model.VMUsage {
	at := c.clk.Now()
	domains, err := c.lister.Domains(ctx)
	if err != nil {
		c.logger.Debug("domain stats unavailable", "error", err)
	}

	snap := rate.NewSnapshot(at)
	for _, d := range domains {
		snap.Set(d.UUID, fieldCPUNs, float64(d.CPUTimeNs))
		snap.Set(d.UUID, fieldDiskRead, float64(d.DiskRead))
		snap.Set(d.UUID, fieldDiskWrite, float64(d.DiskWrite))
		snap.Set(d.UUID, fieldNetRx, float64(d.NetRx))
		snap.Set(d.UUID, fieldNetTx, float64(d.NetTx))
	}
	rec := c.store.ReadAndAdvance(snap)

	out := make([]model.VMUsage, 0, len(domains))
	for _, d := range domains {
		cpuSecs := rec.Get(d.UUID, fieldCPUNs) / 1e9
		out = append(out, model.VMUsage{
			UUID:                 d.UUID,
			Name:                 d.Name,
			State:                d.State,
			VCPUs:                int(d.VCPUs),
			CPUPct:               rate.ClampPercent(cpuSecs * 100 / float64(c.hostCPUs)),
			MemBytes:             d.BalloonKiB * 1024,
			DiskReadBytesPerSec:  rec.Get(d.UUID, fieldDiskRead),
			DiskWriteBytesPerSec: rec.Get(d.UUID, fieldDiskWrite),
			NetRxBytesPerSec:     rec.Get(d.UUID, fieldNetRx),
			NetTxBytesPerSec:     rec.Get(d.UUID, fieldNetTx),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
