package collector

import (
	"context"
	"log/slog"

	"housekeeper/internal/classify"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
	"housekeeper/internal/topk"
)

// ProcessCollector ranks processes by CPU usage. Keys include the start
// time so a recycled pid starts from a fresh baseline.
type ProcessCollector struct {
	src    source.ProcessSource
	store  *rate.Store
	topN   int
	logger *slog.Logger
}

func NewProcessCollector(src source.ProcessSource, topN int, logger *slog.Logger) *ProcessCollector {
	return &ProcessCollector{
		src:    src,
		store:  rate.NewStore(),
		topN:   topN,
		logger: logger.With("collector", "process"),
	}
}

func (c *ProcessCollector) Collect(ctx context.Context) []model.ProcessInfo {
	snap, meta, err := c.src.Processes(ctx)
	if err != nil {
		c.logger.Warn("process table unavailable", "error", err)
	}
	rec := c.store.ReadAndAdvance(snap)

	// Keys() is sorted, which fixes the tie order of the ranking below.
	keys := rec.Keys()
	items := make([]topk.Item[model.ProcessInfo], 0, len(keys))
	for _, key := range keys {
		p, ok := meta[key]
		if !ok {
			continue
		}
		pct := rec.Get(key, source.FieldCPUSeconds) * 100
		items = append(items, topk.Item[model.ProcessInfo]{
			Score: pct,
			Value: model.ProcessInfo{
				PID:      p.PID,
				Name:     classify.ProcessName(p.Cmdline, p.Comm),
				Comm:     p.Comm,
				CPUPct:   pct,
				RSSBytes: p.RSS,
			},
		})
	}

	top := topk.Select(items, c.topN)
	out := make([]model.ProcessInfo, len(top))
	for i, it := range top {
		out[i] = it.Value
	}
	return out
}
