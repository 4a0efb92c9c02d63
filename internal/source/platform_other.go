//go:build !linux

package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"housekeeper/internal/clock"
	"housekeeper/internal/rate"
	"housekeeper/internal/system"
)

type psPlatform struct {
	clk clock.Clock
}

// New builds gopsutil backed sources. The proc and sys roots are ignored
// off Linux.
func New(_ system.FS, clk clock.Clock) (*Platform, error) {
	p := &psPlatform{clk: clk}
	return &Platform{
		CPU:       Func(p.readCPU),
		Disk:      Func(p.readDisk),
		Net:       Func(p.readNet),
		Kernel:    Func(p.readKernel),
		Memory:    p,
		Host:      p,
		Processes: p,
		Mounts:    p,
	}, nil
}

func (p *psPlatform) readCPU(ctx context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	total, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return snap, fmt.Errorf("cpu times: %w", err)
	}
	for _, t := range total {
		setCPUTimes(snap, "cpu", t)
	}
	perCore, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return snap, nil
	}
	for i, t := range perCore {
		setCPUTimes(snap, "cpu"+strconv.Itoa(i), t)
	}
	return snap, nil
}

func setCPUTimes(snap rate.Snapshot, key string, t cpu.TimesStat) {
	snap.Set(key, FieldUser, t.User)
	snap.Set(key, FieldNice, t.Nice)
	snap.Set(key, FieldSystem, t.System)
	snap.Set(key, FieldIdle, t.Idle)
	snap.Set(key, FieldIOWait, t.Iowait)
	snap.Set(key, FieldIRQ, t.Irq)
	snap.Set(key, FieldSoftIRQ, t.Softirq)
	snap.Set(key, FieldSteal, t.Steal)
}

func (p *psPlatform) readDisk(ctx context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("disk counters: %w", err)
	}
	for name, c := range counters {
		// gopsutil reports bytes; keep the sector schema of the Linux source
		snap.Set(name, FieldReadSectors, float64(c.ReadBytes)/rate.SectorBytes)
		snap.Set(name, FieldWriteSectors, float64(c.WriteBytes)/rate.SectorBytes)
		snap.Set(name, FieldReadIOs, float64(c.ReadCount))
		snap.Set(name, FieldWriteIOs, float64(c.WriteCount))
	}
	return snap, nil
}

func (p *psPlatform) readNet(ctx context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return snap, fmt.Errorf("net counters: %w", err)
	}
	for _, c := range counters {
		snap.Set(c.Name, FieldRxBytes, float64(c.BytesRecv))
		snap.Set(c.Name, FieldTxBytes, float64(c.BytesSent))
	}
	return snap, nil
}

func (p *psPlatform) readKernel(ctx context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	misc, err := load.MiscWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("load misc: %w", err)
	}
	snap.Set(KernelKey, FieldContextSwitches, float64(misc.Ctxt))
	snap.Set(KernelKey, FieldInterrupts, 0)
	return snap, nil
}

func (p *psPlatform) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("virtual memory: %w", err)
	}
	m := Memory{
		Total:        vm.Total,
		Free:         vm.Free,
		Available:    vm.Available,
		Buffers:      vm.Buffers,
		Cached:       vm.Cached,
		SReclaimable: vm.Sreclaimable,
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.SwapTotal = sw.Total
		m.SwapFree = sw.Free
	}
	return m, nil
}

func (p *psPlatform) Host(ctx context.Context) (Host, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("load average: %w", err)
	}
	h := Host{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	if misc, err := load.MiscWithContext(ctx); err == nil {
		h.Running = misc.ProcsRunning
		h.Total = misc.ProcsTotal
		h.ProcsBlocked = misc.ProcsBlocked
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		h.Uptime = time.Duration(up) * time.Second
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		h.CPUs = n
	}
	if v, err := host.KernelVersionWithContext(ctx); err == nil {
		h.Release = v
	}
	return h, nil
}

func (p *psPlatform) Processes(ctx context.Context) (rate.Snapshot, map[string]Process, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("list processes: %w", err)
	}
	meta := make(map[string]Process, len(procs))
	for _, pr := range procs {
		times, err := pr.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		created, _ := pr.CreateTimeWithContext(ctx)
		key := strconv.Itoa(int(pr.Pid)) + "/" + strconv.FormatInt(created, 10)
		snap.Set(key, FieldCPUSeconds, times.User+times.System)

		info := Process{PID: int(pr.Pid)}
		info.Comm, _ = pr.NameWithContext(ctx)
		info.Cmdline, _ = pr.CmdlineSliceWithContext(ctx)
		if mi, err := pr.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			info.RSS = mi.RSS
		}
		meta[key] = info
	}
	return snap, meta, nil
}

func (p *psPlatform) Mounts(ctx context.Context) ([]Mount, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}
	out := make([]Mount, 0, len(parts))
	for _, pt := range parts {
		out = append(out, Mount{Device: pt.Device, MountPoint: pt.Mountpoint, FSType: pt.Fstype})
	}
	return out, nil
}
