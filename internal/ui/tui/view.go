package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"housekeeper/internal/format"
	"housekeeper/internal/model"
)

const (
	labelWidth  = 10
	compactRows = 8
)

// View implements tea.Model.
func (m Model) View() string {
	var lines []string
	lines = append(lines, m.viewHeader())
	lines = append(lines, m.viewCPU()...)
	lines = append(lines, m.viewMemory()...)
	if m.showDisks {
		lines = append(lines, m.viewDisks()...)
	}
	if m.showNetworks {
		lines = append(lines, m.viewNetworks()...)
	}
	if m.showNetFS {
		lines = append(lines, m.viewMounts()...)
	}
	if m.showPCIe {
		lines = append(lines, m.viewPCIe()...)
	}
	if m.showGPUs {
		lines = append(lines, m.viewGPUs()...)
	}
	if m.showTemps {
		lines = append(lines, m.viewTemps()...)
	}
	lines = append(lines, m.viewVMs()...)
	lines = append(lines, m.viewProcesses()...)
	lines = append(lines, m.viewConnections()...)
	lines = append(lines, m.viewTimings()...)

	footer := m.help.View(m.keys)
	if m.height > 0 {
		room := max(m.height-lipgloss.Height(footer), 1)
		if len(lines) > room {
			lines = lines[:room]
		}
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, m.width, "")
	}
	return strings.Join(lines, "\n") + "\n" + footer
}

func (m Model) singleBar() int {
	return max(m.width-labelWidth-22, 10)
}

func (m Model) dualBar() int {
	return max((m.width-labelWidth-34)/2, 6)
}

func (m Model) rows(n int) int {
	if m.opts.Full {
		return n
	}
	return min(n, compactRows)
}

func (m Model) title(s string) string {
	return m.styles.title.Render(s)
}

func (m Model) name(s string) string {
	return fmt.Sprintf("%-*s", labelWidth, format.Truncate(s, labelWidth))
}

func (m Model) chart(series string, top float64) []string {
	if !m.opts.Charts || m.opts.ASCII {
		return nil
	}
	r, ok := m.history[series]
	if !ok || r.Len() < 2 {
		return nil
	}
	line := sparkline(r.Values(), top, m.singleBar(), false)
	return []string{strings.Repeat(" ", labelWidth+2) + m.styles.dim.Render(line)}
}

func (m Model) temp(s model.TempSensor) string {
	text := format.Temp(s.Celsius, s.Crit, m.fahrenheit)
	switch {
	case s.Crit > 0 && s.Celsius >= s.Crit:
		return m.styles.crit.Render(text)
	case s.High > 0 && s.Celsius >= s.High:
		return m.styles.warn.Render(text)
	}
	return text
}

func (m Model) viewHeader() string {
	k := m.frame.Kernel
	every := ""
	if m.interval != nil {
		every = "  every " + m.interval.FastInterval().String()
	}
	return m.styles.header.Render(fmt.Sprintf(" housekeeper  %s  up %s  load %.2f %.2f %.2f  procs %d/%d  ctx %s/s  intr %s/s%s ",
		k.Release, k.UptimeStr, k.Load1, k.Load5, k.Load15, k.Running, k.Total,
		format.Rate(k.ContextSwitchesPerSec), format.Rate(k.InterruptsPerSec), every))
}

func (m Model) cpuBar(c model.CPUUsage) string {
	s := m.styles
	return bar(m.singleBar(), m.opts.ASCII, s.dim,
		segment{c.User / 100, s.user},
		segment{c.Nice / 100, s.nice},
		segment{c.System / 100, s.system},
		segment{c.IOWait / 100, s.iowait},
		segment{c.IRQ / 100, s.irq},
		segment{c.Steal / 100, s.steal},
	)
}

func (m Model) viewCPU() []string {
	var out []string
	for _, c := range m.frame.CPU {
		if c.Label != "cpu" && !m.showPerCore {
			continue
		}
		out = append(out, fmt.Sprintf("%s [%s] %5.1f%%", m.name(c.Label), m.cpuBar(c), c.Total))
		if c.Label == "cpu" {
			out = append(out, m.chart("cpu", 100)...)
		}
	}
	return out
}

func (m Model) viewMemory() []string {
	mem, swap, s := m.frame.Memory, m.frame.Swap, m.styles
	if mem.TotalBytes == 0 {
		return nil
	}
	total := float64(mem.TotalBytes)
	out := []string{fmt.Sprintf("%s [%s] %s/%s",
		m.name("mem"),
		bar(m.singleBar(), m.opts.ASCII, s.dim,
			segment{float64(mem.UsedBytes) / total, s.used},
			segment{float64(mem.BuffersBytes) / total, s.buffer},
			segment{float64(mem.CachedBytes) / total, s.cache},
		),
		format.Bytes(mem.UsedBytes), format.Bytes(mem.TotalBytes))}
	out = append(out, m.chart("mem", 100)...)
	if swap.TotalBytes > 0 {
		out = append(out, fmt.Sprintf("%s [%s] %s/%s",
			m.name("swap"),
			bar(m.singleBar(), m.opts.ASCII, s.dim, segment{swap.UsedPct / 100, s.system}),
			format.Bytes(swap.UsedBytes), format.Bytes(swap.TotalBytes)))
	}
	if bw := m.frame.MemBW; bw != nil {
		out = append(out, fmt.Sprintf("%s total %s  local %s", m.name("membw"),
			format.BytesPerSec(bw.TotalBytesPerSec), format.BytesPerSec(bw.LocalBytesPerSec)))
	}
	return out
}

// dual draws a read/write or rx/tx pair against one shared scale.
func (m Model) dual(label string, a, b, top float64, render func(float64) string) string {
	w := m.dualBar()
	return fmt.Sprintf("%s [%s] %9s [%s] %9s", label,
		bar(w, m.opts.ASCII, m.styles.dim, segment{a / top, m.styles.read}), render(a),
		bar(w, m.opts.ASCII, m.styles.dim, segment{b / top, m.styles.write}), render(b))
}

func (m Model) viewDisks() []string {
	disks := m.frame.Disks
	if len(disks) == 0 {
		return nil
	}
	out := []string{m.title("Disks  read / write")}
	for _, d := range disks[:m.rows(len(disks))] {
		out = append(out, m.dual(m.name(d.Name), d.ReadBytesPerSec, d.WriteBytesPerSec,
			m.scaleOf("disk/"+d.Name), format.BytesPerSec))
	}
	return out
}

func (m Model) viewNetworks() []string {
	nets := m.frame.Networks
	if len(nets) == 0 {
		return nil
	}
	out := []string{m.title("Network  rx / tx")}
	shown := 0
	for _, n := range nets {
		if n.Master != "" && !m.showBondMembers {
			continue
		}
		if shown == m.rows(len(nets)) {
			break
		}
		shown++
		label := n.Name
		if n.Master != "" {
			label = " " + label
		}
		line := m.dual(m.name(label), n.RxBytesPerSec, n.TxBytesPerSec, m.scaleOf("net/"+n.Name), format.BitsPerSec)
		tag := n.Type
		if n.IsBond {
			tag += " " + n.BondMode
		}
		out = append(out, line+" "+m.styles.dim.Render(tag))
		if n.Master == "" {
			out = append(out, m.chart("net/"+n.Name, m.scaleOf("net/"+n.Name)*2)...)
		}
	}
	return out
}

func (m Model) viewMounts() []string {
	mounts := m.frame.Mounts
	if len(mounts) == 0 {
		return nil
	}
	out := []string{m.title("Network filesystems  read / write")}
	for _, mt := range mounts[:m.rows(len(mounts))] {
		label := m.name(mt.MountPoint)
		if !mt.HasStats {
			out = append(out, fmt.Sprintf("%s %s %s %s", label, mt.Label, mt.ShortDevice, m.styles.dim.Render("no counters")))
			continue
		}
		line := m.dual(label, mt.ReadBytesPerSec, mt.WriteBytesPerSec, m.scaleOf("nfs/"+mt.MountPoint), format.BytesPerSec)
		out = append(out, line+" "+m.styles.dim.Render(mt.Label+" "+mt.ShortDevice))
	}
	return out
}

func (m Model) viewPCIe() []string {
	devs := m.frame.PCIe
	if len(devs) == 0 {
		return nil
	}
	degraded := "!"
	if !m.opts.ASCII {
		degraded = "↓"
	}
	out := []string{m.title("PCIe  link / io")}
	for _, d := range devs[:m.rows(len(devs))] {
		link := fmt.Sprintf("%s x%d", d.CurrentGen, d.CurrentWidth)
		if d.Degraded() {
			link = m.styles.warn.Render(link + degraded)
		}
		util := bar(m.dualBar(), m.opts.ASCII, m.styles.dim, segment{d.IOUtilization, m.styles.read})
		out = append(out, fmt.Sprintf("%s %-12s [%s] %9s %9s %s", m.name(d.ShortName), link, util,
			format.BytesPerSec(d.ReadBytesPerSec), format.BytesPerSec(d.WriteBytesPerSec), m.styles.dim.Render(d.BDF)))
	}
	return out
}

func (m Model) viewGPUs() []string {
	gpus := m.frame.GPUs
	if len(gpus) == 0 {
		return nil
	}
	out := []string{m.title("GPUs  util / mem")}
	w := m.dualBar()
	for _, g := range gpus {
		label := m.name(fmt.Sprintf("%s%d", g.Vendor, g.Index))
		out = append(out, fmt.Sprintf("%s [%s] %4.0f%% [%s] %s/%s %s %.0fW %s", label,
			bar(w, m.opts.ASCII, m.styles.dim, segment{g.UtilPct / 100, m.styles.user}), g.UtilPct,
			bar(w, m.opts.ASCII, m.styles.dim, segment{g.MemPct() / 100, m.styles.buffer}),
			format.MiB(g.MemUsedMiB), format.MiB(g.MemTotalMiB),
			m.temp(model.TempSensor{Celsius: g.TempC}), g.PowerW, m.styles.dim.Render(g.Name)))
		out = append(out, m.chart(gpuKey(g), 100)...)
		procs := g.Processes
		if !m.opts.Full {
			procs = procs[:min(len(procs), 3)]
		}
		for _, p := range procs {
			out = append(out, fmt.Sprintf("%s %7d %-20s %s", strings.Repeat(" ", labelWidth), p.PID,
				format.Truncate(p.Name, 20), format.MiB(p.MemMiB)))
		}
	}
	return out
}

func (m Model) viewTemps() []string {
	devs := m.frame.Temps
	if len(devs) == 0 {
		return nil
	}
	out := []string{m.title("Temperatures")}
	for _, d := range devs {
		parts := make([]string, 0, len(d.Temps)+len(d.Fans))
		for _, s := range d.Temps {
			parts = append(parts, s.Label+" "+m.temp(s))
		}
		for _, f := range d.Fans {
			parts = append(parts, fmt.Sprintf("%s %.0frpm", f.Label, f.RPM))
		}
		out = append(out, m.styles.label.Render(d.DisplayName())+"  "+strings.Join(parts, "  "))
	}
	return out
}

func (m Model) viewVMs() []string {
	vms := m.frame.VMs
	if len(vms) == 0 {
		return nil
	}
	out := []string{m.title("Virtual machines  cpu / io")}
	w := m.dualBar()
	for _, v := range vms[:m.rows(len(vms))] {
		busiest := vmIO(v)
		out = append(out, fmt.Sprintf("%s [%s] %5.1f%% [%s] %9s %s", m.name(v.Name),
			bar(w, m.opts.ASCII, m.styles.dim, segment{v.CPUPct / 100, m.styles.user}), v.CPUPct,
			bar(w, m.opts.ASCII, m.styles.dim, segment{busiest / m.scaleOf("vm/"+v.UUID), m.styles.read}),
			format.BytesPerSec(busiest), m.styles.dim.Render(v.State)))
	}
	return out
}

// vmIO is the busier of a domain's disk and network traffic.
func vmIO(v model.VMUsage) float64 {
	return max(v.DiskReadBytesPerSec+v.DiskWriteBytesPerSec, v.NetRxBytesPerSec+v.NetTxBytesPerSec)
}

func (m Model) viewProcesses() []string {
	procs := m.frame.Processes
	if len(procs) == 0 {
		return nil
	}
	out := []string{m.title(fmt.Sprintf("%7s %-24s %6s %9s", "PID", "PROCESS", "CPU%", "RSS"))}
	for _, p := range procs {
		out = append(out, fmt.Sprintf("%7d %-24s %6.1f %9s", p.PID, format.Truncate(p.Name, 24), p.CPUPct, format.Bytes(p.RSSBytes)))
	}
	return out
}

func (m Model) viewConnections() []string {
	conns := m.frame.Connections
	if len(conns) == 0 {
		return nil
	}
	out := []string{m.title(fmt.Sprintf("%-39s %5s %9s %9s", "REMOTE", "CONNS", "SENT", "RECV"))}
	for _, c := range conns {
		out = append(out, fmt.Sprintf("%-39s %5d %9s %9s", c.RemoteIP, c.Connections,
			format.BytesPerSec(c.SentBytesPerSec), format.BytesPerSec(c.RecvBytesPerSec)))
	}
	return out
}

func (m Model) viewTimings() []string {
	if len(m.frame.Timings) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.frame.Timings))
	for name := range m.frame.Timings {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+m.frame.Timings[name].String())
	}
	return []string{m.styles.dim.Render("timings: " + strings.Join(parts, "  "))}
}
