package collector

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"housekeeper/internal/classify"
	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

var (
	nvidiaFullQuery = []string{
		"index", "name", "utilization.gpu", "memory.used", "memory.total",
		"temperature.gpu", "power.draw", "power.limit", "fan.speed",
	}
	// fan.speed fails the whole query on passively cooled datacenter boards
	nvidiaReducedQuery = nvidiaFullQuery[:8]
)

// NVIDIAReader queries nvidia-smi for utilisation, memory, thermals, codec
// load and the compute processes holding memory on each board.
type NVIDIAReader struct {
	runner system.Runner
	fs     system.FS
	logger *slog.Logger

	uuidIndex map[string]int
}

func NewNVIDIAReader(runner system.Runner, fs system.FS, logger *slog.Logger) *NVIDIAReader {
	return &NVIDIAReader{runner: runner, fs: fs, logger: logger.With("vendor", model.GPUVendorNVIDIA)}
}

func (r *NVIDIAReader) Vendor() string { return model.GPUVendorNVIDIA }

func (r *NVIDIAReader) Probe(context.Context) bool {
	return system.Available(r.runner, "nvidia-smi")
}

func (r *NVIDIAReader) Read(ctx context.Context) []model.GPUInfo {
	rows := r.queryCSV(ctx, nvidiaFullQuery)
	if len(rows) == 0 {
		rows = r.queryCSV(ctx, nvidiaReducedQuery)
	}

	out := make([]model.GPUInfo, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		g := model.GPUInfo{Vendor: model.GPUVendorNVIDIA, Index: len(out), Name: system.NormalizeField(row[1])}
		if idx, err := strconv.Atoi(strings.TrimSpace(row[0])); err == nil {
			g.Index = idx
		}
		g.UtilPct = cell(row, 2)
		g.MemUsedMiB = cell(row, 3)
		g.MemTotalMiB = cell(row, 4)
		g.TempC = cell(row, 5)
		g.PowerW = cell(row, 6)
		g.PowerLimitW = cell(row, 7)
		g.FanPct = cell(row, 8)
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil
	}

	r.ensureUUIDs(ctx)
	for i := range out {
		for uuid, idx := range r.uuidIndex {
			if idx == out[i].Index {
				out[i].UUID = uuid
			}
		}
	}
	r.applyCodecUtil(ctx, out)
	r.applyProcesses(ctx, out)
	return out
}

func cell(row []string, i int) float64 {
	if i >= len(row) {
		return 0
	}
	return system.ParseFloatFlexible(row[i])
}

func (r *NVIDIAReader) queryCSV(ctx context.Context, fields []string) [][]string {
	out := system.RunSoft(ctx, r.runner, r.logger, "nvidia-smi",
		"--query-gpu="+strings.Join(fields, ","),
		"--format=csv,noheader,nounits",
	)
	return system.ParseCSV(out)
}

func (r *NVIDIAReader) ensureUUIDs(ctx context.Context) {
	if r.uuidIndex != nil {
		return
	}
	out := system.RunSoft(ctx, r.runner, r.logger, "nvidia-smi", "--query-gpu=index,uuid", "--format=csv,noheader")
	m := map[string]int{}
	for _, row := range system.ParseCSV(out) {
		if len(row) < 2 {
			continue
		}
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		m[row[1]] = idx
	}
	if len(m) > 0 {
		r.uuidIndex = m
	}
}

func (r *NVIDIAReader) applyCodecUtil(ctx context.Context, gpus []model.GPUInfo) {
	byUUID := make(map[string]*model.GPUInfo, len(gpus))
	for i := range gpus {
		if gpus[i].UUID != "" {
			byUUID[gpus[i].UUID] = &gpus[i]
		}
	}
	if len(byUUID) == 0 {
		return
	}
	for _, row := range r.queryCSV(ctx, []string{"uuid", "utilization.encoder"}) {
		if len(row) >= 2 {
			if g := byUUID[system.NormalizeField(row[0])]; g != nil {
				g.EncoderPct = system.ParseFloatFlexible(row[1])
			}
		}
	}
	for _, row := range r.queryCSV(ctx, []string{"uuid", "utilization.decoder"}) {
		if len(row) >= 2 {
			if g := byUUID[system.NormalizeField(row[0])]; g != nil {
				g.DecoderPct = system.ParseFloatFlexible(row[1])
			}
		}
	}
}

// applyProcesses attaches compute apps to their board, largest memory
// holders first.
func (r *NVIDIAReader) applyProcesses(ctx context.Context, gpus []model.GPUInfo) {
	out := system.RunSoft(ctx, r.runner, r.logger, "nvidia-smi",
		"--query-compute-apps=pid,gpu_uuid,used_gpu_memory,process_name",
		"--format=csv,noheader,nounits",
	)
	byIndex := make(map[int]*model.GPUInfo, len(gpus))
	for i := range gpus {
		byIndex[gpus[i].Index] = &gpus[i]
	}
	for _, row := range system.ParseCSV(out) {
		pid, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		idx := 0
		if len(row) > 1 {
			idx = r.uuidIndex[row[1]]
		}
		g := byIndex[idx]
		if g == nil {
			continue
		}
		var rawName string
		if len(row) > 3 {
			rawName = row[3]
		}
		g.Processes = append(g.Processes, model.GPUProcess{
			PID:    pid,
			Name:   r.processName(pid, rawName),
			MemMiB: cell(row, 2),
		})
	}
	for i := range gpus {
		sort.SliceStable(gpus[i].Processes, func(a, b int) bool {
			return gpus[i].Processes[a].MemMiB > gpus[i].Processes[b].MemMiB
		})
	}
}

func (r *NVIDIAReader) processName(pid int, rawName string) string {
	raw := system.ReadString(r.fs.Proc(strconv.Itoa(pid), "cmdline"))
	argv := strings.Split(raw, "\x00")
	comm := ""
	if rawName != "" {
		comm = rawName[strings.LastIndex(rawName, "/")+1:]
	}
	return classify.GPUProcessName(argv, comm)
}
