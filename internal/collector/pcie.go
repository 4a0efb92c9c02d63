package collector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"housekeeper/internal/classify"
	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
	"housekeeper/internal/system"
)

const pcieNameMax = 30

// perLaneGBs is the usable per-lane bandwidth after line coding.
var perLaneGBs = map[string]float64{
	"2.5 GT/s": 0.25,
	"5.0 GT/s": 0.50, "5 GT/s": 0.50,
	"8.0 GT/s": 0.985, "8 GT/s": 0.985,
	"16.0 GT/s": 1.969, "16 GT/s": 1.969,
	"32.0 GT/s": 3.938, "32 GT/s": 3.938,
	"64.0 GT/s": 7.877, "64 GT/s": 7.877,
}

var pcieGens = map[string]string{
	"2.5 GT/s": "Gen1",
	"5.0 GT/s": "Gen2", "5 GT/s": "Gen2",
	"8.0 GT/s": "Gen3", "8 GT/s": "Gen3",
	"16.0 GT/s": "Gen4", "16 GT/s": "Gen4",
	"32.0 GT/s": "Gen5", "32 GT/s": "Gen5",
	"64.0 GT/s": "Gen6", "64 GT/s": "Gen6",
}

var vendorPrefixes = []string{"NVIDIA Corporation ", "NVIDIA ", "Advanced Micro Devices, Inc. ", "Intel Corporation "}

type subsystemKind int

const (
	subsystemStorage subsystemKind = iota + 1
	subsystemNetwork
	subsystemGPU
)

type subsystem struct {
	kind  subsystemKind
	label string
	gpu   int
}

// PCIeCollector reports link training state for storage, network, display
// and accelerator devices and correlates each with the throughput of the
// block device, interface or GPU behind it.
type PCIeCollector struct {
	fs     system.FS
	runner system.Runner
	disk   source.Source
	net    source.Source
	clk    clock.Clock
	store  *rate.Store
	logger *slog.Logger

	once       sync.Once
	subsystems map[string]subsystem
	names      map[string]string
	nvidia     bool
}

func NewPCIeCollector(fs system.FS, runner system.Runner, disk, net source.Source, clk clock.Clock, logger *slog.Logger) *PCIeCollector {
	return &PCIeCollector{
		fs:         fs,
		runner:     runner,
		disk:       disk,
		net:        net,
		clk:        clk,
		store:      rate.NewStore(),
		logger:     logger.With("collector", "pcie"),
		subsystems: map[string]subsystem{},
		names:      map[string]string{},
	}
}

func (c *PCIeCollector) devicesDir() string {
	return c.fs.Sys("bus", "pci", "devices")
}

func (c *PCIeCollector) Probe(context.Context) bool {
	return system.Exists(c.devicesDir())
}

// discover maps BDFs to the subsystem they back. It runs once; hotplug is
// not followed.
func (c *PCIeCollector) discover(ctx context.Context) {
	for _, bdf := range system.ListDir(c.devicesDir()) {
		dir := filepath.Join(c.devicesDir(), bdf)
		if ctrls := system.ListDir(filepath.Join(dir, "nvme")); len(ctrls) > 0 {
			for _, ctrl := range ctrls {
				if strings.HasPrefix(ctrl, "nvme") {
					c.subsystems[bdf] = subsystem{kind: subsystemStorage, label: ctrl + "n1"}
					break
				}
			}
			continue
		}
		if ifaces := system.ListDir(filepath.Join(dir, "net")); len(ifaces) > 0 {
			c.subsystems[bdf] = subsystem{kind: subsystemNetwork, label: ifaces[0]}
		}
	}

	c.nvidia = system.Available(c.runner, "nvidia-smi")
	if !c.nvidia {
		return
	}
	out := system.RunSoft(ctx, c.runner, c.logger, "nvidia-smi", "--query-gpu=index,gpu_bus_id", "--format=csv,noheader")
	for _, row := range system.ParseCSV(out) {
		if len(row) < 2 {
			continue
		}
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		bdf := NormalizeBDF(row[1])
		c.subsystems[bdf] = subsystem{kind: subsystemGPU, label: "GPU" + row[0], gpu: idx}
	}
}

// NormalizeBDF converts the nvidia-smi bus id form "00000000:D1:00.0" to the
// sysfs form "0000:d1:00.0".
func NormalizeBDF(bdf string) string {
	bdf = strings.ToLower(strings.TrimSpace(bdf))
	parts := strings.Split(bdf, ":")
	if len(parts) >= 3 && len(parts[0]) == 8 {
		parts[0] = parts[0][4:]
		bdf = strings.Join(parts, ":")
	}
	return bdf
}

func (c *PCIeCollector) Collect(ctx context.Context) []model.PCIeDevice {
	c.once.Do(func() { c.discover(ctx) })
	if !c.Probe(ctx) {
		return nil
	}

	rec := c.store.ReadAndAdvance(c.throughputSnapshot(ctx))
	var gpuIO map[int][2]float64
	if c.nvidia {
		gpuIO = c.nvidiaPCIeThroughput(ctx)
	}

	var out []model.PCIeDevice
	for _, bdf := range system.ListDir(c.devicesDir()) {
		dir := filepath.Join(c.devicesDir(), bdf)
		if !system.Exists(filepath.Join(dir, "current_link_speed")) {
			continue
		}
		class, ok := system.ReadHex(filepath.Join(dir, "class"))
		if !ok || !classify.WantedPCIClass(uint32(class)) {
			continue
		}

		d := model.PCIeDevice{
			BDF:          bdf,
			Kind:         string(classify.PCIClass(uint32(class))),
			Driver:       driverName(dir),
			CurrentSpeed: system.ReadString(filepath.Join(dir, "current_link_speed")),
			MaxSpeed:     system.ReadString(filepath.Join(dir, "max_link_speed")),
			CurrentWidth: readWidth(filepath.Join(dir, "current_link_width")),
			MaxWidth:     readWidth(filepath.Join(dir, "max_link_width")),
		}
		d.Name = c.deviceName(ctx, bdf)
		d.ShortName = shortPCIeName(d.Name)
		fillLink(&d)

		if sub, ok := c.subsystems[bdf]; ok {
			d.Subsystem = sub.label
			switch sub.kind {
			case subsystemStorage, subsystemNetwork:
				key := subsystemKey(sub)
				d.ReadBytesPerSec = rec.Get(key, fieldReadBytes)
				d.WriteBytesPerSec = rec.Get(key, fieldWriteBytes)
			case subsystemGPU:
				if io, ok := gpuIO[sub.gpu]; ok {
					d.ReadBytesPerSec, d.WriteBytesPerSec = io[0], io[1]
				}
			}
		}
		if d.LinkBandwidthGBs > 0 {
			gbs := (d.ReadBytesPerSec + d.WriteBytesPerSec) / (1 << 30)
			d.IOUtilization = min(gbs/d.LinkBandwidthGBs, 1)
		}
		out = append(out, d)
	}
	return out
}

func subsystemKey(s subsystem) string {
	if s.kind == subsystemStorage {
		return "disk/" + s.label
	}
	return "net/" + s.label
}

// throughputSnapshot merges the disk and net counters of correlated
// subsystems into one snapshot so a single store tracks them.
func (c *PCIeCollector) throughputSnapshot(ctx context.Context) rate.Snapshot {
	snap := rate.NewSnapshot(c.clk.Now())
	disk, err := c.disk.Read(ctx)
	if err != nil {
		c.logger.Debug("disk counters unavailable", "error", err)
	}
	net, err := c.net.Read(ctx)
	if err != nil {
		c.logger.Debug("net counters unavailable", "error", err)
	}
	for _, sub := range c.subsystems {
		key := subsystemKey(sub)
		switch sub.kind {
		case subsystemStorage:
			if f, ok := disk.Values[sub.label]; ok {
				snap.Set(key, fieldReadBytes, f.Get(source.FieldReadSectors)*rate.SectorBytes)
				snap.Set(key, fieldWriteBytes, f.Get(source.FieldWriteSectors)*rate.SectorBytes)
			}
		case subsystemNetwork:
			if f, ok := net.Values[sub.label]; ok {
				snap.Set(key, fieldReadBytes, f.Get(source.FieldRxBytes))
				snap.Set(key, fieldWriteBytes, f.Get(source.FieldTxBytes))
			}
		}
	}
	return snap
}

// nvidiaPCIeThroughput reads one dmon sample of PCIe rx/tx in MB/s.
func (c *PCIeCollector) nvidiaPCIeThroughput(ctx context.Context) map[int][2]float64 {
	out := system.RunSoft(ctx, c.runner, c.logger, "nvidia-smi", "dmon", "-s", "t", "-c", "1")
	return parseDmon(out)
}

func parseDmon(out []byte) map[int][2]float64 {
	res := map[int][2]float64{}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		rx, err1 := strconv.ParseFloat(fields[1], 64)
		tx, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		res[idx] = [2]float64{rx * (1 << 20), tx * (1 << 20)}
	}
	return res
}

func (c *PCIeCollector) deviceName(ctx context.Context, bdf string) string {
	if name, ok := c.names[bdf]; ok {
		return name
	}
	out := strings.TrimSpace(string(system.RunSoft(ctx, c.runner, c.logger, "lspci", "-s", bdf, "-D")))
	name := out
	if _, rest, ok := strings.Cut(out, ": "); ok {
		name = rest
	}
	c.names[bdf] = name
	return name
}

func fillLink(d *model.PCIeDevice) {
	cur := normalizeSpeed(d.CurrentSpeed)
	maxSpeed := normalizeSpeed(d.MaxSpeed)
	d.CurrentGen = system.FirstNonEmpty(pcieGens[cur], d.CurrentSpeed)
	d.MaxGen = system.FirstNonEmpty(pcieGens[maxSpeed], d.MaxSpeed)
	d.LinkBandwidthGBs = perLaneGBs[cur] * float64(d.CurrentWidth)
	d.MaxBandwidthGBs = perLaneGBs[maxSpeed] * float64(d.MaxWidth)
	if d.MaxBandwidthGBs > 0 {
		d.LinkUtilization = d.LinkBandwidthGBs / d.MaxBandwidthGBs
	}
}

// normalizeSpeed turns "16.0 GT/s PCIe" into "16.0 GT/s".
func normalizeSpeed(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " PCIe", ""))
}

func shortPCIeName(name string) string {
	for _, p := range vendorPrefixes {
		name = strings.TrimPrefix(name, p)
	}
	if len(name) > pcieNameMax {
		name = name[:pcieNameMax-3] + "..."
	}
	return name
}

func readWidth(path string) int {
	v, ok := system.ReadUint(path)
	if !ok {
		return 0
	}
	return int(v)
}

func driverName(dir string) string {
	target, err := os.Readlink(filepath.Join(dir, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}
