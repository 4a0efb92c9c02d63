package collector

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

var gaudiQuery = []string{
	"index", "name", "utilization.aip", "memory.used", "memory.total", "temperature.aip", "power.draw",
}

// GaudiReader queries hl-smi, which mirrors the nvidia-smi query interface.
type GaudiReader struct {
	runner system.Runner
	logger *slog.Logger
}

func NewGaudiReader(runner system.Runner, logger *slog.Logger) *GaudiReader {
	return &GaudiReader{runner: runner, logger: logger.With("vendor", model.GPUVendorGaudi)}
}

func (r *GaudiReader) Vendor() string { return model.GPUVendorGaudi }

func (r *GaudiReader) Probe(context.Context) bool {
	return system.Available(r.runner, "hl-smi")
}

func (r *GaudiReader) Read(ctx context.Context) []model.GPUInfo {
	out := system.RunSoft(ctx, r.runner, r.logger, "hl-smi",
		"-Q", strings.Join(gaudiQuery, ","), "-f", "csv,noheader,nounits")
	if gpus := ParseGaudiCSV(out); len(gpus) > 0 {
		return gpus
	}
	return ParseGaudiTable(system.RunSoft(ctx, r.runner, r.logger, "hl-smi"))
}

func ParseGaudiCSV(raw []byte) []model.GPUInfo {
	var out []model.GPUInfo
	for _, row := range system.ParseCSV(raw) {
		if len(row) == 0 {
			continue
		}
		g := model.GPUInfo{Index: len(out), Vendor: model.GPUVendorGaudi, Name: "Gaudi"}
		if idx, err := strconv.Atoi(row[0]); err == nil {
			g.Index = idx
		}
		if len(row) > 1 {
			g.Name = system.FirstNonEmpty(row[1], g.Name)
		}
		g.UtilPct = cell(row, 2)
		g.MemUsedMiB = cell(row, 3)
		g.MemTotalMiB = cell(row, 4)
		g.TempC = cell(row, 5)
		g.PowerW = cell(row, 6)
		out = append(out, g)
	}
	return out
}

// ParseGaudiTable picks device rows out of the boxed default hl-smi table.
// Only index and name are recoverable from it.
func ParseGaudiTable(raw []byte) []model.GPUInfo {
	var out []model.GPUInfo
	for _, line := range strings.Split(string(raw), "\n") {
		stripped := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "|"))
		parts := strings.Fields(stripped)
		if len(parts) < 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		end := min(len(parts), 3)
		out = append(out, model.GPUInfo{
			Index:  idx,
			Vendor: model.GPUVendorGaudi,
			Name:   strings.Join(parts[1:end], " "),
		})
	}
	return out
}
