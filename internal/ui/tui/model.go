// Package tui is the full-screen dashboard. It redraws whenever the board
// publishes a frame and never collects anything itself.
package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"housekeeper/internal/config"
	"housekeeper/internal/model"
	"housekeeper/internal/scale"
)

const (
	historyLen   = 60
	intervalStep = 500 * time.Millisecond
)

type FrameSource interface {
	Latest() model.Frame
	Subscribe() (<-chan struct{}, func())
}

// IntervalControl adjusts the fast tier period; the scheduler implements it.
type IntervalControl interface {
	FastInterval() time.Duration
	SetFastInterval(d time.Duration)
}

type Options struct {
	// ASCII restricts drawing to 7-bit characters and drops the charts.
	ASCII bool
	// Charts adds history line charts under the busiest meters.
	Charts     bool
	Fahrenheit bool
	NoPerCore  bool
	Full       bool
}

func OptionsFrom(cfg config.Config) Options {
	return Options{
		ASCII:      cfg.Mode == config.ModeCharacter,
		Charts:     cfg.Mode == config.ModeGUI,
		Fahrenheit: cfg.Fahrenheit,
		NoPerCore:  cfg.NoPerCore,
		Full:       cfg.Full,
	}
}

type frameMsg struct{}

type Model struct {
	source   FrameSource
	interval IntervalControl
	updates  <-chan struct{}
	keys     KeyMap
	help     help.Model
	styles   styles
	opts     Options

	frame  model.Frame
	width  int
	height int

	showPerCore     bool
	showPCIe        bool
	showTemps       bool
	showNetworks    bool
	showGPUs        bool
	showDisks       bool
	showNetFS       bool
	showBondMembers bool
	fahrenheit      bool

	history map[string]*Ring
	peaks   map[string]*scale.Peak
	// seen holds the last tier pass counters fed to history and peaks.
	seen map[model.Tier]uint64
}

func NewModel(source FrameSource, updates <-chan struct{}, interval IntervalControl, opts Options) Model {
	return Model{
		source:          source,
		interval:        interval,
		updates:         updates,
		keys:            DefaultKeyMap,
		help:            help.New(),
		styles:          defaultStyles(),
		opts:            opts,
		frame:           source.Latest(),
		width:           80,
		showPerCore:     !opts.NoPerCore,
		showPCIe:        true,
		showTemps:       true,
		showNetworks:    true,
		showGPUs:        true,
		showDisks:       true,
		showNetFS:       true,
		showBondMembers: true,
		fahrenheit:      opts.Fahrenheit,
		history:         map[string]*Ring{},
		peaks:           map[string]*scale.Peak{},
		seen:            map[model.Tier]uint64{},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForFrame(m.updates)
}

// waitForFrame blocks until the board signals, then asks Update to read
// the latest frame.
func waitForFrame(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return frameMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = m.source.Latest()
		m.observe(m.frame)
		return m, waitForFrame(m.updates)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.PerCore):
		m.showPerCore = !m.showPerCore
	case key.Matches(msg, m.keys.PCIe):
		m.showPCIe = !m.showPCIe
	case key.Matches(msg, m.keys.Temps):
		m.showTemps = !m.showTemps
	case key.Matches(msg, m.keys.Networks):
		m.showNetworks = !m.showNetworks
	case key.Matches(msg, m.keys.GPUs):
		m.showGPUs = !m.showGPUs
	case key.Matches(msg, m.keys.Disks):
		m.showDisks = !m.showDisks
	case key.Matches(msg, m.keys.NetFS):
		m.showNetFS = !m.showNetFS
	case key.Matches(msg, m.keys.BondMembers):
		m.showBondMembers = !m.showBondMembers
	case key.Matches(msg, m.keys.Units):
		m.fahrenheit = !m.fahrenheit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Faster):
		m.adjustInterval(-intervalStep)
	case key.Matches(msg, m.keys.Slower):
		m.adjustInterval(intervalStep)
	}
	return m, nil
}

func (m Model) adjustInterval(delta time.Duration) {
	if m.interval == nil {
		return
	}
	next := min(max(m.interval.FastInterval()+delta, config.MinInterval), config.MaxInterval)
	m.interval.SetFastInterval(next)
}

// observe feeds the peak trackers and chart history from a new frame. Each
// section is fed once per pass of the tier that owns it, so a slow tier
// publishing does not replay the fast sections.
func (m Model) observe(f model.Frame) {
	if m.advanced(f, model.TierFast) {
		for _, c := range f.CPU {
			if c.Label == "cpu" {
				m.record("cpu", c.Total)
			}
		}
		m.record("mem", f.Memory.UsedPct)
		for _, d := range f.Disks {
			m.peak("disk/"+d.Name, scale.MaxOf(d.ReadBytesPerSec, d.WriteBytesPerSec))
			m.record("disk/"+d.Name, d.ReadBytesPerSec+d.WriteBytesPerSec)
		}
		for _, n := range f.Networks {
			m.peak("net/"+n.Name, scale.MaxOf(n.RxBytesPerSec, n.TxBytesPerSec))
			m.record("net/"+n.Name, n.RxBytesPerSec+n.TxBytesPerSec)
		}
		for _, mt := range f.Mounts {
			m.peak("nfs/"+mt.MountPoint, scale.MaxOf(mt.ReadBytesPerSec, mt.WriteBytesPerSec))
		}
	}
	if m.advanced(f, model.TierSlow) {
		for _, d := range f.PCIe {
			m.peak("pcie/"+d.BDF, scale.MaxOf(d.ReadBytesPerSec, d.WriteBytesPerSec))
		}
		for _, g := range f.GPUs {
			m.record(gpuKey(g), g.UtilPct)
		}
		for _, v := range f.VMs {
			m.peak("vm/"+v.UUID, vmIO(v))
		}
	}
}

// advanced reports whether tier completed a pass since the last observe.
func (m Model) advanced(f model.Frame, tier model.Tier) bool {
	n := f.Passes[tier]
	if n == m.seen[tier] {
		return false
	}
	m.seen[tier] = n
	return true
}

func (m Model) record(name string, v float64) {
	r, ok := m.history[name]
	if !ok {
		r = NewRing(historyLen)
		m.history[name] = r
	}
	r.Push(v)
}

func (m Model) peak(name string, v float64) {
	p, ok := m.peaks[name]
	if !ok {
		p = scale.NewPeak()
		m.peaks[name] = p
	}
	p.Update(v)
}

// scaleOf returns the chart top for a series, or the tracker floor when the
// series has not been observed yet.
func (m Model) scaleOf(name string) float64 {
	if p, ok := m.peaks[name]; ok {
		return p.Scale()
	}
	return scale.DefaultFloor * scale.DefaultHeadroom
}

func gpuKey(g model.GPUInfo) string {
	return "gpu/" + g.Vendor + "/" + strconv.Itoa(g.Index)
}
