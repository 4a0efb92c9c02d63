package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

const (
	maxAMDCards = 16
	// rocm-smi reports VRAM in bytes on new releases and MiB on old ones
	vramBytesThreshold = 10000
)

// AMDReader reads rocm-smi JSON output, falling back to its CSV mode.
type AMDReader struct {
	runner system.Runner
	logger *slog.Logger
}

func NewAMDReader(runner system.Runner, logger *slog.Logger) *AMDReader {
	return &AMDReader{runner: runner, logger: logger.With("vendor", model.GPUVendorAMD)}
}

func (r *AMDReader) Vendor() string { return model.GPUVendorAMD }

func (r *AMDReader) Probe(context.Context) bool {
	return system.Available(r.runner, "rocm-smi")
}

func (r *AMDReader) Read(ctx context.Context) []model.GPUInfo {
	out := system.RunSoft(ctx, r.runner, r.logger, "rocm-smi",
		"--showuse", "--showmeminfo", "vram", "--showtemp", "--showpower", "--showfan", "--json")
	if gpus, err := ParseROCmJSON(out); err == nil && len(gpus) > 0 {
		return gpus
	} else if err != nil && out != nil {
		r.logger.Debug("rocm-smi json unreadable", "error", err)
	}
	csv := system.RunSoft(ctx, r.runner, r.logger, "rocm-smi",
		"--showuse", "--showmemuse", "--showtemp", "--showpower", "--csv")
	return ParseROCmCSV(csv)
}

// ParseROCmJSON decodes the card0..card15 objects of rocm-smi --json.
func ParseROCmJSON(raw []byte) ([]model.GPUInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode rocm-smi json: %w", err)
	}
	var out []model.GPUInfo
	for i := 0; i < maxAMDCards; i++ {
		rawCard, ok := decoded["card"+strconv.Itoa(i)]
		if !ok {
			continue
		}
		var card map[string]any
		if err := json.Unmarshal(rawCard, &card); err != nil {
			return out, fmt.Errorf("decode rocm-smi card%d: %w", i, err)
		}
		name := findMapString(card, "Card series", "card_series")
		out = append(out, model.GPUInfo{
			Index:       i,
			Vendor:      model.GPUVendorAMD,
			Name:        system.FirstNonEmpty(name, "AMD GPU "+strconv.Itoa(i)),
			UtilPct:     findMapFloat(card, "GPU use (%)", "GPU use", "gpu_use_percent"),
			MemUsedMiB:  vramMiB(findMapFloat(card, "VRAM Total Used Memory (B)", "vram_used")),
			MemTotalMiB: vramMiB(findMapFloat(card, "VRAM Total Memory (B)", "vram_total")),
			TempC:       findMapFloat(card, "Temperature (Sensor edge) (C)", "temperature_edge", "Temperature"),
			PowerW:      findMapFloat(card, "Average Graphics Package Power (W)", "average_socket_power", "Power"),
			PowerLimitW: findMapFloat(card, "Max Graphics Package Power (W)", "power_cap"),
			FanPct:      findMapFloat(card, "Fan speed (%)", "fan_speed_percent"),
		})
	}
	return out, nil
}

func vramMiB(v float64) float64 {
	if v > vramBytesThreshold {
		return v / (1 << 20)
	}
	return v
}

// ParseROCmCSV reads the header-keyed CSV output of older rocm-smi builds.
func ParseROCmCSV(raw []byte) []model.GPUInfo {
	rows := system.ParseCSV(raw)
	if len(rows) < 2 {
		return nil
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(h)
	}
	var out []model.GPUInfo
	for idx, vals := range rows[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(vals) {
				row[h] = vals[i]
			}
		}
		f := func(keys ...string) float64 {
			for _, k := range keys {
				if v := system.ParseFloatFlexible(row[k]); v != 0 {
					return v
				}
			}
			return 0
		}
		out = append(out, model.GPUInfo{
			Index:   idx,
			Vendor:  model.GPUVendorAMD,
			Name:    system.FirstNonEmpty(row["device"], "AMD GPU "+strconv.Itoa(idx)),
			UtilPct: f("gpu use (%)", "gpu_use_%"),
			TempC:   f("temperature (sensor edge) (c)", "temp"),
			PowerW:  f("average socket power (w)", "power"),
		})
	}
	return out
}

// findMapFloat returns the first key present, tried exactly and then as a
// case-insensitive substring.
func findMapFloat(m map[string]any, keys ...string) float64 {
	v, ok := lookupKey(m, keys)
	if !ok {
		return 0
	}
	switch typed := v.(type) {
	case float64:
		return typed
	case string:
		return system.ParseFloatFlexible(typed)
	default:
		return system.ParseFloatFlexible(fmt.Sprintf("%v", typed))
	}
}

func findMapString(m map[string]any, keys ...string) string {
	v, ok := lookupKey(m, keys)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return system.NormalizeField(s)
	}
	return system.NormalizeField(fmt.Sprintf("%v", v))
}

func lookupKey(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	for _, k := range keys {
		needle := strings.ToLower(k)
		for mk, v := range m {
			if strings.Contains(strings.ToLower(mk), needle) {
				return v, true
			}
		}
	}
	return nil, false
}
