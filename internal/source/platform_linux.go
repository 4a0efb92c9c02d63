//go:build linux

package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"
	"golang.org/x/sys/unix"

	"housekeeper/internal/clock"
	"housekeeper/internal/rate"
	"housekeeper/internal/system"
)

type linuxPlatform struct {
	proc    procfs.FS
	block   blockdevice.FS
	paths   system.FS
	clk     clock.Clock
	release string
}

// New builds the /proc backed sources rooted at fs.
func New(fs system.FS, clk clock.Clock) (*Platform, error) {
	proc, err := procfs.NewFS(fs.ProcRoot)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", fs.ProcRoot, err)
	}
	block, err := blockdevice.NewFS(fs.ProcRoot, fs.SysRoot)
	if err != nil {
		return nil, fmt.Errorf("open blockdevice fs: %w", err)
	}
	p := &linuxPlatform{proc: proc, block: block, paths: fs, clk: clk}
	p.release = kernelRelease(fs)

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

func kernelRelease(fs system.FS) string {
	if v := system.ReadString(fs.Proc("sys", "kernel", "osrelease")); v != "" {
		return v
	}
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}

func (p *linuxPlatform) readCPU(context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	stat, err := p.proc.Stat()
	if err != nil {
		return rate.NewSnapshot(at), fmt.Errorf("read /proc/stat: %w", err)
	}
	snap := rate.NewSnapshot(at)
	setCPU(snap, "cpu", stat.CPUTotal)
	for id, c := range stat.CPU {
		setCPU(snap, "cpu"+strconv.FormatInt(id, 10), c)
	}
	return snap, nil
}

func setCPU(snap rate.Snapshot, key string, c procfs.CPUStat) {
	snap.Set(key, FieldUser, c.User)
	snap.Set(key, FieldNice, c.Nice)
	snap.Set(key, FieldSystem, c.System)
	snap.Set(key, FieldIdle, c.Idle)
	snap.Set(key, FieldIOWait, c.Iowait)
	snap.Set(key, FieldIRQ, c.IRQ)
	snap.Set(key, FieldSoftIRQ, c.SoftIRQ)
	snap.Set(key, FieldSteal, c.Steal)
}

func (p *linuxPlatform) readDisk(context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	stats, err := p.block.ProcDiskstats()
	if err != nil {
		return rate.NewSnapshot(at), fmt.Errorf("read /proc/diskstats: %w", err)
	}
	snap := rate.NewSnapshot(at)
	for _, d := range stats {
		name := d.Info.DeviceName
		snap.Set(name, FieldReadSectors, float64(d.IOStats.ReadSectors))
		snap.Set(name, FieldWriteSectors, float64(d.IOStats.WriteSectors))
		snap.Set(name, FieldReadIOs, float64(d.IOStats.ReadIOs))
		snap.Set(name, FieldWriteIOs, float64(d.IOStats.WriteIOs))
	}
	return snap, nil
}

func (p *linuxPlatform) readNet(context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	dev, err := p.proc.NetDev()
	if err != nil {
		return rate.NewSnapshot(at), fmt.Errorf("read /proc/net/dev: %w", err)
	}
	snap := rate.NewSnapshot(at)
	for name, line := range dev {
		snap.Set(name, FieldRxBytes, float64(line.RxBytes))
		snap.Set(name, FieldTxBytes, float64(line.TxBytes))
	}
	return snap, nil
}

func (p *linuxPlatform) readKernel(context.Context) (rate.Snapshot, error) {
	at := p.clk.Now()
	stat, err := p.proc.Stat()
	if err != nil {
		return rate.NewSnapshot(at), fmt.Errorf("read /proc/stat: %w", err)
	}
	snap := rate.NewSnapshot(at)
	snap.Set(KernelKey, FieldContextSwitches, float64(stat.ContextSwitches))
	snap.Set(KernelKey, FieldInterrupts, float64(stat.IRQTotal))
	return snap, nil
}

func (p *linuxPlatform) Memory(context.Context) (Memory, error) {
	mi, err := p.proc.Meminfo()
	if err != nil {
		return Memory{}, fmt.Errorf("read /proc/meminfo: %w", err)
	}
	if mi.MemTotal == nil {
		return Memory{}, fmt.Errorf("MemTotal missing")
	}
	return Memory{
		Total:        kib(mi.MemTotal),
		Free:         kib(mi.MemFree),
		Available:    kib(mi.MemAvailable),
		Buffers:      kib(mi.Buffers),
		Cached:       kib(mi.Cached),
		SReclaimable: kib(mi.SReclaimable),
		SwapTotal:    kib(mi.SwapTotal),
		SwapFree:     kib(mi.SwapFree),
		SwapCached:   kib(mi.SwapCached),
	}, nil
}

func kib(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v * 1024
}

func (p *linuxPlatform) Host(context.Context) (Host, error) {
	load, err := p.proc.LoadAvg()
	if err != nil {
		return Host{}, fmt.Errorf("read /proc/loadavg: %w", err)
	}
	h := Host{Load1: load.Load1, Load5: load.Load5, Load15: load.Load15, Release: p.release}
	h.Running, h.Total = runQueue(system.ReadString(p.paths.Proc("loadavg")))
	h.Uptime = readUptime(p.paths.Proc("uptime"))

	if stat, err := p.proc.Stat(); err == nil {
		h.CPUs = len(stat.CPU)
		h.ProcsBlocked = int(stat.ProcessesBlocked)
		if h.Uptime == 0 && stat.BootTime > 0 {
			h.Uptime = time.Since(time.Unix(int64(stat.BootTime), 0))
		}
	}
	return h, nil
}

// runQueue parses the "running/total" column of /proc/loadavg.
func runQueue(loadavg string) (int, int) {
	fields := strings.Fields(loadavg)
	if len(fields) < 4 {
		return 0, 0
	}
	running, total, ok := strings.Cut(fields[3], "/")
	if !ok {
		return 0, 0
	}
	r, _ := strconv.Atoi(running)
	t, _ := strconv.Atoi(total)
	return r, t
}

func readUptime(path string) time.Duration {
	fields := strings.Fields(system.ReadString(path))
	if len(fields) == 0 {
		return 0
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func (p *linuxPlatform) Processes(context.Context) (rate.Snapshot, map[string]Process, error) {
	at := p.clk.Now()
	snap := rate.NewSnapshot(at)
	procs, err := p.proc.AllProcs()
	if err != nil {
		return snap, nil, fmt.Errorf("list processes: %w", err)
	}
	meta := make(map[string]Process, len(procs))
	for _, pr := range procs {
		st, err := pr.Stat()
		if err != nil {
			// exited between listing and reading
			continue
		}
		key := strconv.Itoa(st.PID) + "/" + strconv.FormatUint(st.Starttime, 10)
		snap.Set(key, FieldCPUSeconds, st.CPUTime())
		info := Process{PID: st.PID, Comm: st.Comm, RSS: uint64(st.ResidentMemory())}
		if argv, err := pr.CmdLine(); err == nil {
			info.Cmdline = argv
		}
		meta[key] = info
	}
	return snap, meta, nil
}

func (p *linuxPlatform) Mounts(context.Context) ([]Mount, error) {
	self, err := p.proc.Self()
	if err != nil {
		// fixture trees have no self link
		self, err = p.proc.Proc(1)
		if err != nil {
			return nil, fmt.Errorf("open mount namespace: %w", err)
		}
	}
	infos, err := self.MountInfo()
	if err != nil {
		return nil, fmt.Errorf("read mountinfo: %w", err)
	}
	nfs := map[string]*procfs.MountStatsNFS{}
	if stats, err := self.MountStats(); err == nil {
		for _, m := range stats {
			if s, ok := m.Stats.(*procfs.MountStatsNFS); ok {
				nfs[m.Mount] = s
			}
		}
	}

	var out []Mount
	for _, mi := range infos {
		m := Mount{Device: mi.Source, MountPoint: mi.MountPoint, FSType: mi.FSType}
		if s, ok := nfs[mi.MountPoint]; ok {
			m.HasStats = true
			m.ReadBytes = s.Bytes.Read
			m.WriteBytes = s.Bytes.Write
			for _, op := range s.Operations {
				switch op.Operation {
				case "READ":
					m.ReadOps = op.Requests
				case "WRITE":
					m.WriteOps = op.Requests
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}
