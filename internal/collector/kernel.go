package collector

import (
	"context"
	"log/slog"

	"housekeeper/internal/format"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

// KernelCollector combines load gauges with context switch and interrupt
// rates.
type KernelCollector struct {
	counters source.Source
	host     source.HostSource
	store    *rate.Store
	logger   *slog.Logger
}

func NewKernelCollector(counters source.Source, host source.HostSource, logger *slog.Logger) *KernelCollector {
	return &KernelCollector{
		counters: counters,
		host:     host,
		store:    rate.NewStore(),
		logger:   logger.With("collector", "kernel"),
	}
}

func (c *KernelCollector) Collect(ctx context.Context) model.KernelInfo {
	snap, err := c.counters.Read(ctx)
	if err != nil {
		c.logger.Warn("kernel counters unavailable", "error", err)
	}
	rec := c.store.ReadAndAdvance(snap)

	info := model.KernelInfo{
		ContextSwitchesPerSec: rec.Get(source.KernelKey, source.FieldContextSwitches),
		InterruptsPerSec:      rec.Get(source.KernelKey, source.FieldInterrupts),
	}
	h, err := c.host.Host(ctx)
	if err != nil {
		c.logger.Warn("host gauges unavailable", "error", err)
		return info
	}
	info.Load1, info.Load5, info.Load15 = h.Load1, h.Load5, h.Load15
	info.Running, info.Total, info.Blocked = h.Running, h.Total, h.ProcsBlocked
	info.CPUs = h.CPUs
	info.Uptime = h.Uptime
	info.UptimeStr = format.Uptime(h.Uptime)
	info.Release = h.Release
	if h.CPUs > 0 {
		info.LoadPerCPU = h.Load1 / float64(h.CPUs)
	}
	return info
}
