package text

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/model"
)

func sampleFrame() model.Frame {
	return model.Frame{
		Kernel: model.KernelInfo{Release: "6.8.0", UptimeStr: "1d 2h 3m", Load1: 0.5, Running: 2, Total: 300},
		CPU: []model.CPUUsage{
			{Label: "cpu", User: 12.5, Idle: 80, Total: 20},
			{Label: "cpu0", User: 25, Idle: 70, Total: 30},
		},
		Memory:    model.MemoryUsage{TotalBytes: 8 << 30, UsedBytes: 2 << 30, UsedPct: 25},
		Disks:     []model.DiskUsage{{Name: "nvme0n1", ReadBytesPerSec: 2 * 1024 * 1024}},
		Networks:  []model.NetUsage{{Name: "bond0", Type: "WAN", IsBond: true, BondMode: "802.3ad", Members: []string{"eth0", "eth1"}}, {Name: "eth0", Type: "WAN", Master: "bond0"}},
		Processes: []model.ProcessInfo{{PID: 42, Name: "postgres", CPUPct: 55.5, RSSBytes: 1 << 20}},
		Mounts: []model.NetMount{
			{MountPoint: "/mnt/data", Label: "NFS", ShortDevice: "fs:/data", HasStats: true, ReadBytesPerSec: 1024},
			{MountPoint: "/mnt/smb", Label: "SMB", ShortDevice: "//srv/share"},
		},
		PCIe:    []model.PCIeDevice{{BDF: "0000:01:00.0", ShortName: "Samsung 990", Kind: "NVMe", CurrentGen: "Gen3", CurrentWidth: 4, MaxGen: "Gen4", MaxWidth: 4, LinkBandwidthGBs: 3.9, MaxBandwidthGBs: 7.9}},
		Temps:   []model.TempDevice{{Name: "coretemp", Category: "CPU", Temps: []model.TempSensor{{Label: "Package id 0", Celsius: 50, Crit: 100}}}},
		Timings: map[string]time.Duration{"cpu": time.Millisecond},
	}
}

func TestRenderSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleFrame(), Options{}))
	out := buf.String()

	assert.Contains(t, out, "kernel 6.8.0  up 1d 2h 3m")
	assert.Contains(t, out, "[CPU]")
	assert.Contains(t, out, "cpu0")
	assert.Contains(t, out, "nvme0n1")
	assert.Contains(t, out, "2.0M/s")
	assert.Contains(t, out, "802.3ad [eth0,eth1]")
	assert.Contains(t, out, "member of bond0")
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "(max Gen4 x4)")
	assert.Contains(t, out, "CPU (coretemp): Package id 0 50C/100C")
	assert.Contains(t, out, "[Collector timings]")
	assert.NotContains(t, out, "[GPUs]", "empty sections are skipped")
	assert.NotContains(t, out, "[Virtual machines]")
}

func TestRenderAppleGPUStages(t *testing.T) {
	f := sampleFrame()
	f.GPUs = []model.GPUInfo{{Index: 0, Vendor: model.GPUVendorApple, Name: "Apple M2", UtilPct: 40, RendererPct: 38, TilerPct: 9}}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, Options{}))
	assert.Contains(t, buf.String(), "gpu0  renderer 38%  tiler 9%")
}

func TestRenderFahrenheit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleFrame(), Options{Fahrenheit: true}))
	assert.Contains(t, buf.String(), "122F/212F")
}

func TestRenderLimitsRowsUnlessFull(t *testing.T) {
	f := model.Frame{}
	for i := range 12 {
		f.Disks = append(f.Disks, model.DiskUsage{Name: "sd" + string(rune('a'+i))})
	}

	var short, full bytes.Buffer
	require.NoError(t, Render(&short, f, Options{}))
	require.NoError(t, Render(&full, f, Options{Full: true}))
	assert.NotContains(t, short.String(), "sdl")
	assert.Contains(t, full.String(), "sdl")
}
