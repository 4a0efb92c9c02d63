// Package text prints a one-shot plain report of a frame.
package text

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"housekeeper/internal/format"
	"housekeeper/internal/model"
)

const defaultWidth = 100

type Options struct {
	Fahrenheit bool
	// Full lists every row instead of the busiest handful per section.
	Full  bool
	Width int
}

// TerminalWidth returns the width of stdout, or a fixed fallback when stdout
// is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

type report struct {
	w    *bufio.Writer
	opts Options
}

// Render writes the whole report; the first write error is returned.
func Render(w io.Writer, f model.Frame, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	r := &report{w: bufio.NewWriter(w), opts: opts}
	r.header(f)
	r.cpu(f.CPU)
	r.memory(f)
	r.disks(f.Disks)
	r.networks(f.Networks)
	r.processes(f.Processes)
	r.connections(f.Connections)
	r.mounts(f.Mounts)
	r.pcie(f.PCIe)
	r.gpus(f.GPUs)
	r.temps(f.Temps)
	r.vms(f.VMs)
	r.timings(f)
	return r.w.Flush()
}

func (r *report) section(title string) {
	fmt.Fprintf(r.w, "\n[%s]\n", title)
}

func (r *report) table(header string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	return tw
}

func (r *report) limit(n int) int {
	if r.opts.Full {
		return n
	}
	return min(n, 8)
}

func (r *report) name(s string) string {
	return format.Truncate(s, max(r.opts.Width/4, 12))
}

func (r *report) header(f model.Frame) {
	k := f.Kernel
	fmt.Fprintf(r.w, "housekeeper  kernel %s  up %s  load %.2f %.2f %.2f (%.2f/cpu)  procs %d/%d blocked %d\n",
		k.Release, k.UptimeStr, k.Load1, k.Load5, k.Load15, k.LoadPerCPU, k.Running, k.Total, k.Blocked)
	fmt.Fprintf(r.w, "ctx switches %s/s  interrupts %s/s\n",
		format.Rate(k.ContextSwitchesPerSec), format.Rate(k.InterruptsPerSec))
}

func (r *report) cpu(rows []model.CPUUsage) {
	if len(rows) == 0 {
		return
	}
	r.section("CPU")
	tw := r.table("CPU\tUSER\tNICE\tSYS\tIOWAIT\tIRQ\tSTEAL\tIDLE\tTOTAL")
	for _, c := range rows {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			c.Label, c.User, c.Nice, c.System, c.IOWait, c.IRQ, c.Steal, c.Idle, c.Total)
	}
	tw.Flush()
}

func (r *report) memory(f model.Frame) {
	m, s := f.Memory, f.Swap
	r.section("Memory")
	fmt.Fprintf(r.w, "mem   %s / %s (%.1f%%)  avail %s  buffers %s  cached %s\n",
		format.Bytes(m.UsedBytes), format.Bytes(m.TotalBytes), m.UsedPct,
		format.Bytes(m.AvailableBytes), format.Bytes(m.BuffersBytes), format.Bytes(m.CachedBytes))
	if s.TotalBytes > 0 {
		fmt.Fprintf(r.w, "swap  %s / %s (%.1f%%)\n", format.Bytes(s.UsedBytes), format.Bytes(s.TotalBytes), s.UsedPct)
	}
	if bw := f.MemBW; bw != nil {
		fmt.Fprintf(r.w, "membw total %s  local %s  (%d L3 domains)\n",
			format.BytesPerSec(bw.TotalBytesPerSec), format.BytesPerSec(bw.LocalBytesPerSec), bw.Domains)
	}
}

func (r *report) disks(rows []model.DiskUsage) {
	if len(rows) == 0 {
		return
	}
	r.section("Disks")
	tw := r.table("DEVICE\tREAD\tWRITE\tR IOPS\tW IOPS")
	for _, d := range rows[:r.limit(len(rows))] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%.0f\n", d.Name,
			format.BytesPerSec(d.ReadBytesPerSec), format.BytesPerSec(d.WriteBytesPerSec), d.ReadIOPS, d.WriteIOPS)
	}
	tw.Flush()
}

func (r *report) networks(rows []model.NetUsage) {
	if len(rows) == 0 {
		return
	}
	r.section("Network")
	tw := r.table("IFACE\tTYPE\tRX\tTX\tBOND")
	for _, n := range rows[:r.limit(len(rows))] {
		name := n.Name
		if n.Master != "" {
			name = "  " + name
		}
		bond := ""
		switch {
		case n.IsBond:
			bond = n.BondMode + " [" + strings.Join(n.Members, ",") + "]"
		case n.Master != "":
			bond = "member of " + n.Master
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, n.Type,
			format.BitsPerSec(n.RxBytesPerSec), format.BitsPerSec(n.TxBytesPerSec), bond)
	}
	tw.Flush()
}

func (r *report) processes(rows []model.ProcessInfo) {
	if len(rows) == 0 {
		return
	}
	r.section("Processes")
	tw := r.table("PID\tNAME\tCPU%\tRSS")
	for _, p := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\n", p.PID, r.name(p.Name), p.CPUPct, format.Bytes(p.RSSBytes))
	}
	tw.Flush()
}

func (r *report) connections(rows []model.IPTraffic) {
	if len(rows) == 0 {
		return
	}
	r.section("Connections")
	tw := r.table("REMOTE\tCONNS\tSENT\tRECV\tTOTAL")
	for _, c := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", c.RemoteIP, c.Connections,
			format.BytesPerSec(c.SentBytesPerSec), format.BytesPerSec(c.RecvBytesPerSec), format.BytesPerSec(c.TotalBytesPerSec))
	}
	tw.Flush()
}

func (r *report) mounts(rows []model.NetMount) {
	if len(rows) == 0 {
		return
	}
	r.section("Network filesystems")
	tw := r.table("MOUNT\tTYPE\tDEVICE\tREAD\tWRITE\tR OPS\tW OPS")
	for _, m := range rows {
		if !m.HasStats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\n", r.name(m.MountPoint), m.Label, m.ShortDevice)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f\t%.0f\n", r.name(m.MountPoint), m.Label, m.ShortDevice,
			format.BytesPerSec(m.ReadBytesPerSec), format.BytesPerSec(m.WriteBytesPerSec), m.ReadOpsPerSec, m.WriteOpsPerSec)
	}
	tw.Flush()
}

func (r *report) pcie(rows []model.PCIeDevice) {
	if len(rows) == 0 {
		return
	}
	r.section("PCIe")
	tw := r.table("BDF\tDEVICE\tKIND\tLINK\tGB/s\tREAD\tWRITE\tIO%")
	for _, d := range rows {
		link := fmt.Sprintf("%s x%d", d.CurrentGen, d.CurrentWidth)
		if d.Degraded() {
			link += fmt.Sprintf(" (max %s x%d)", d.MaxGen, d.MaxWidth)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\t%s\t%.0f\n", d.BDF, d.ShortName, d.Kind, link, d.LinkBandwidthGBs,
			format.BytesPerSec(d.ReadBytesPerSec), format.BytesPerSec(d.WriteBytesPerSec), d.IOUtilization*100)
	}
	tw.Flush()
}

func (r *report) gpus(rows []model.GPUInfo) {
	if len(rows) == 0 {
		return
	}
	r.section("GPUs")
	tw := r.table("IDX\tVENDOR\tNAME\tUTIL%\tMEM\tTEMP\tPOWER")
	for _, g := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%s/%s\t%s\t%.0fW\n", g.Index, g.Vendor, r.name(g.Name), g.UtilPct,
			format.MiB(g.MemUsedMiB), format.MiB(g.MemTotalMiB), format.Temp(g.TempC, 0, r.opts.Fahrenheit), g.PowerW)
	}
	tw.Flush()
	for _, g := range rows {
		if g.RendererPct > 0 || g.TilerPct > 0 {
			fmt.Fprintf(r.w, "  gpu%d  renderer %.0f%%  tiler %.0f%%\n", g.Index, g.RendererPct, g.TilerPct)
		}
		for _, p := range g.Processes {
			fmt.Fprintf(r.w, "  gpu%d  %d  %s  %s\n", g.Index, p.PID, r.name(p.Name), format.MiB(p.MemMiB))
		}
	}
}

func (r *report) temps(rows []model.TempDevice) {
	if len(rows) == 0 {
		return
	}
	r.section("Temperatures")
	for _, d := range rows {
		parts := make([]string, 0, len(d.Temps)+len(d.Fans))
		for _, s := range d.Temps {
			parts = append(parts, s.Label+" "+format.Temp(s.Celsius, s.Crit, r.opts.Fahrenheit))
		}
		for _, fan := range d.Fans {
			parts = append(parts, fmt.Sprintf("%s %.0frpm", fan.Label, fan.RPM))
		}
		fmt.Fprintf(r.w, "%s: %s\n", d.DisplayName(), strings.Join(parts, "  "))
	}
}

func (r *report) vms(rows []model.VMUsage) {
	if len(rows) == 0 {
		return
	}
	r.section("Virtual machines")
	tw := r.table("NAME\tSTATE\tVCPU\tCPU%\tMEM\tDISK R\tDISK W\tNET RX\tNET TX")
	for _, v := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%s\t%s\t%s\t%s\t%s\n", r.name(v.Name), v.State, v.VCPUs, v.CPUPct,
			format.Bytes(v.MemBytes), format.BytesPerSec(v.DiskReadBytesPerSec), format.BytesPerSec(v.DiskWriteBytesPerSec),
			format.BytesPerSec(v.NetRxBytesPerSec), format.BytesPerSec(v.NetTxBytesPerSec))
	}
	tw.Flush()
}

func (r *report) timings(f model.Frame) {
	if len(f.Timings) == 0 {
		return
	}
	r.section("Collector timings")
	names := make([]string, 0, len(f.Timings))
	for name := range f.Timings {
		names = append(names, name)
	}
	slices.Sort(names)
	tw := r.table("COLLECTOR\tELAPSED")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, f.Timings[name])
	}
	tw.Flush()
}
