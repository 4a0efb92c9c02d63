package collector

import (
	"context"
	"log/slog"
	"sort"

	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

// CPUCollector turns jiffy counters into per-interval shares.
type CPUCollector struct {
	src     source.Source
	store   *rate.Store
	perCore bool
	logger  *slog.Logger
}

func NewCPUCollector(src source.Source, perCore bool, logger *slog.Logger) *CPUCollector {
	return &CPUCollector{
		src:     src,
		store:   rate.NewShareStore(),
		perCore: perCore,
		logger:  logger.With("collector", "cpu"),
	}
}

func (c *CPUCollector) Collect(ctx context.Context) []model.CPUUsage {
	snap, err := c.src.Read(ctx)
	if err != nil {
		c.logger.Warn("cpu counters unavailable", "error", err)
	}
	shares := c.store.ReadAndAdvance(snap)

	labels := shares.Keys()
	sortCPULabels(labels)

	out := make([]model.CPUUsage, 0, len(labels))
	for _, label := range labels {
		if !c.perCore && label != "cpu" {
			continue
		}
		out = append(out, cpuUsage(label, shares[label]))
	}
	return out
}

func cpuUsage(label string, f rate.Fields) model.CPUUsage {
	idle := f.Get(source.FieldIdle) + f.Get(source.FieldIOWait)
	u := model.CPUUsage{
		Label:  label,
		User:   f.Get(source.FieldUser),
		Nice:   f.Get(source.FieldNice),
		System: f.Get(source.FieldSystem),
		IOWait: f.Get(source.FieldIOWait),
		IRQ:    f.Get(source.FieldIRQ) + f.Get(source.FieldSoftIRQ),
		Steal:  f.Get(source.FieldSteal),
		Idle:   idle,
	}
	// a baseline or zero-delta interval has no idle share either
	if len(f) > 0 && idle+u.User+u.Nice+u.System+u.IRQ+u.Steal > 0 {
		u.Total = rate.ClampPercent(100 - idle)
	}
	return u
}

// sortCPULabels orders by length then name so "cpu" precedes "cpu0" and
// "cpu2" precedes "cpu10".
func sortCPULabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})
}
