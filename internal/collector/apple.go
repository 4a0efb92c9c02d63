package collector

import (
	"context"
	"fmt"
	"log/slog"

	"howett.net/plist"

	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

var ioregArgs = []string{"-r", "-d", "1", "-w", "0", "-c", "IOAccelerator", "-a"}

// ioAccelerator is one IOAccelerator registry entry as printed by ioreg -a.
type ioAccelerator struct {
	Model     string         `plist:"model"`
	CoreCount uint64         `plist:"gpu-core-count"`
	Stats     map[string]any `plist:"PerformanceStatistics"`
}

// AppleReader reads Apple silicon GPU statistics from the IOAccelerator
// registry class. Memory is unified, so the totals are the allocated share.
type AppleReader struct {
	runner system.Runner
	logger *slog.Logger
}

func NewAppleReader(runner system.Runner, logger *slog.Logger) *AppleReader {
	return &AppleReader{runner: runner, logger: logger.With("vendor", model.GPUVendorApple)}
}

func (r *AppleReader) Vendor() string { return model.GPUVendorApple }

// Probe requires an entry carrying PerformanceStatistics; Intel Macs list
// accelerators without them.
func (r *AppleReader) Probe(ctx context.Context) bool {
	if !system.Available(r.runner, "ioreg") {
		return false
	}
	return len(r.Read(ctx)) > 0
}

func (r *AppleReader) Read(ctx context.Context) []model.GPUInfo {
	out := system.RunSoft(ctx, r.runner, r.logger, "ioreg", ioregArgs...)
	gpus, err := ParseIORegAccelerators(out)
	if err != nil {
		r.logger.Debug("ioreg plist unreadable", "error", err)
	}
	return gpus
}

// ParseIORegAccelerators decodes the plist array of ioreg -a. Entries
// without statistics are skipped but keep their position as the index.
func ParseIORegAccelerators(raw []byte) ([]model.GPUInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []ioAccelerator
	if _, err := plist.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode ioreg plist: %w", err)
	}
	var out []model.GPUInfo
	for i, e := range entries {
		if len(e.Stats) == 0 {
			continue
		}
		out = append(out, model.GPUInfo{
			Index:       i,
			Vendor:      model.GPUVendorApple,
			Name:        system.FirstNonEmpty(e.Model, "Apple GPU"),
			UtilPct:     plistNumber(e.Stats["Device Utilization %"]),
			RendererPct: plistNumber(e.Stats["Renderer Utilization %"]),
			TilerPct:    plistNumber(e.Stats["Tiler Utilization %"]),
			MemUsedMiB:  plistNumber(e.Stats["In use system memory"]) / (1 << 20),
			MemTotalMiB: plistNumber(e.Stats["Alloc system memory"]) / (1 << 20),
			Cores:       int(e.CoreCount),
		})
	}
	return out, nil
}

func plistNumber(v any) float64 {
	switch n := v.(type) {
	case uint64:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}
