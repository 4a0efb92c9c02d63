package collector

import (
	"context"
	"log/slog"
	"sync"

	"housekeeper/internal/model"
)

// GPUReader is one vendor's accelerator tool.
type GPUReader interface {
	Vendor() string
	Probe(ctx context.Context) bool
	Read(ctx context.Context) []model.GPUInfo
}

// GPUCollector merges every vendor reader whose tool is installed. Probing
// happens once; a host does not grow accelerators at runtime.
type GPUCollector struct {
	readers []GPUReader
	logger  *slog.Logger

	once   sync.Once
	active []GPUReader
}

func NewGPUCollector(logger *slog.Logger, readers ...GPUReader) *GPUCollector {
	return &GPUCollector{readers: readers, logger: logger.With("collector", "gpu")}
}

func (c *GPUCollector) probe(ctx context.Context) {
	for _, r := range c.readers {
		if r.Probe(ctx) {
			c.logger.Info("accelerator tool found", "vendor", r.Vendor())
			c.active = append(c.active, r)
		}
	}
}

func (c *GPUCollector) Probe(ctx context.Context) bool {
	c.once.Do(func() { c.probe(ctx) })
	return len(c.active) > 0
}

// Vendors lists the readers that probed successfully.
func (c *GPUCollector) Vendors(ctx context.Context) []string {
	c.Probe(ctx)
	out := make([]string, 0, len(c.active))
	for _, r := range c.active {
		out = append(out, r.Vendor())
	}
	return out
}

func (c *GPUCollector) Collect(ctx context.Context) []model.GPUInfo {
	if !c.Probe(ctx) {
		return nil
	}
	var out []model.GPUInfo
	for _, r := range c.active {
		out = append(out, r.Read(ctx)...)
	}
	return out
}
