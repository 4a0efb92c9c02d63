package collector

import (
	"context"
	"log/slog"

	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

// MemoryCollector reports RAM and swap gauges. There is no rate here.
type MemoryCollector struct {
	src    source.MemorySource
	logger *slog.Logger
}

func NewMemoryCollector(src source.MemorySource, logger *slog.Logger) *MemoryCollector {
	return &MemoryCollector{src: src, logger: logger.With("collector", "memory")}
}

func (c *MemoryCollector) Collect(ctx context.Context) (model.MemoryUsage, model.SwapUsage) {
	m, err := c.src.Memory(ctx)
	if err != nil {
		c.logger.Warn("memory info unavailable", "error", err)
		return model.MemoryUsage{}, model.SwapUsage{}
	}
	return memoryUsage(m), swapUsage(m)
}

func memoryUsage(m source.Memory) model.MemoryUsage {
	cached := m.Cached + m.SReclaimable
	used := saturatingSub(m.Total, m.Free, m.Buffers, cached)
	return model.MemoryUsage{
		TotalBytes:     m.Total,
		UsedBytes:      used,
		FreeBytes:      m.Free,
		AvailableBytes: m.Available,
		BuffersBytes:   m.Buffers,
		CachedBytes:    cached,
		UsedPct:        rate.PercentOf(float64(used), float64(m.Total)),
	}
}

func swapUsage(m source.Memory) model.SwapUsage {
	used := saturatingSub(m.SwapTotal, m.SwapFree, m.SwapCached)
	return model.SwapUsage{
		TotalBytes:  m.SwapTotal,
		UsedBytes:   used,
		FreeBytes:   m.SwapFree,
		CachedBytes: m.SwapCached,
		UsedPct:     rate.PercentOf(float64(used), float64(m.SwapTotal)),
	}
}

func saturatingSub(total uint64, parts ...uint64) uint64 {
	for _, p := range parts {
		if p >= total {
			return 0
		}
		total -= p
	}
	return total
}
