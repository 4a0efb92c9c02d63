package model

import (
	"maps"
	"time"
)

type Tier string

const (
	TierFast     Tier = "fast"
	TierSlow     Tier = "slow"
	TierVerySlow Tier = "very_slow"
)

// Frame is the latest view of every collector. Tiers overwrite only the
// sections they own, so a frame may mix results of different ages.
type Frame struct {
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`

	CPU         []CPUUsage    `json:"cpu"`
	Memory      MemoryUsage   `json:"memory"`
	Swap        SwapUsage     `json:"swap"`
	Disks       []DiskUsage   `json:"disks"`
	Networks    []NetUsage    `json:"networks"`
	Kernel      KernelInfo    `json:"kernel"`
	Processes   []ProcessInfo `json:"processes"`
	MemBW       *MemBandwidth `json:"mem_bw,omitempty"`
	Connections []IPTraffic   `json:"connections"`
	Mounts      []NetMount    `json:"mounts"`
	PCIe        []PCIeDevice  `json:"pcie"`
	GPUs        []GPUInfo     `json:"gpus"`
	Temps       []TempDevice  `json:"temps"`
	VMs         []VMUsage     `json:"vms"`

	// Passes counts completed collection passes per tier. Renderers compare
	// it to tell a fresh section from one another tier left untouched.
	Passes map[Tier]uint64 `json:"passes,omitempty"`

	// Timings holds per-collector elapsed time when profiling is enabled.
	Timings map[string]time.Duration `json:"timings,omitempty"`
}

// MarkPass bumps the pass counter of tier. The map is replaced, not edited,
// because earlier copies of the frame share it.
func (f *Frame) MarkPass(tier Tier) {
	passes := maps.Clone(f.Passes)
	if passes == nil {
		passes = map[Tier]uint64{}
	}
	passes[tier]++
	f.Passes = passes
}
