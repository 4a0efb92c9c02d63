package collector

import (
	"context"

	"housekeeper/internal/model"
)

// Set is the collectors enabled on this host. Nil members were disabled by
// configuration or failed their probe.
type Set struct {
	CPU         *CPUCollector
	Memory      *MemoryCollector
	Disk        *DiskCollector
	Network     *NetworkCollector
	Kernel      *KernelCollector
	Processes   *ProcessCollector
	MemBW       *MemBandwidthCollector
	NetFS       *NetFSCollector
	Connections *ConnectionsCollector
	PCIe        *PCIeCollector
	GPU         *GPUCollector
	VM          *VMCollector
	Temperature *TemperatureCollector
}

// Tasks binds each enabled collector to its tier.
func (s Set) Tasks() []Task {
	var tasks []Task
	add := func(name string, tier model.Tier, fn func(ctx context.Context) Update) {
		tasks = append(tasks, Task{Name: name, Tier: tier, Collect: fn})
	}

	if s.CPU != nil {
		add("cpu", model.TierFast, func(ctx context.Context) Update {
			v := s.CPU.Collect(ctx)
			return func(f *model.Frame) { f.CPU = v }
		})
	}
	if s.Memory != nil {
		add("memory", model.TierFast, func(ctx context.Context) Update {
			mem, swap := s.Memory.Collect(ctx)
			return func(f *model.Frame) { f.Memory, f.Swap = mem, swap }
		})
	}
	if s.Disk != nil {
		add("disk", model.TierFast, func(ctx context.Context) Update {
			v := s.Disk.Collect(ctx)
			return func(f *model.Frame) { f.Disks = v }
		})
	}
	if s.Network != nil {
		add("network", model.TierFast, func(ctx context.Context) Update {
			v := s.Network.Collect(ctx)
			return func(f *model.Frame) { f.Networks = v }
		})
	}
	if s.Kernel != nil {
		add("kernel", model.TierFast, func(ctx context.Context) Update {
			v := s.Kernel.Collect(ctx)
			return func(f *model.Frame) { f.Kernel = v }
		})
	}
	if s.Processes != nil {
		add("processes", model.TierFast, func(ctx context.Context) Update {
			v := s.Processes.Collect(ctx)
			return func(f *model.Frame) { f.Processes = v }
		})
	}
	if s.MemBW != nil {
		add("membw", model.TierFast, func(ctx context.Context) Update {
			v := s.MemBW.Collect(ctx)
			return func(f *model.Frame) { f.MemBW = v }
		})
	}
	if s.NetFS != nil {
		add("netfs", model.TierFast, func(ctx context.Context) Update {
			v := s.NetFS.Collect(ctx)
			return func(f *model.Frame) { f.Mounts = v }
		})
	}
	if s.Connections != nil {
		add("connections", model.TierSlow, func(ctx context.Context) Update {
			v := s.Connections.Collect(ctx)
			return func(f *model.Frame) { f.Connections = v }
		})
	}
	if s.PCIe != nil {
		add("pcie", model.TierSlow, func(ctx context.Context) Update {
			v := s.PCIe.Collect(ctx)
			return func(f *model.Frame) { f.PCIe = v }
		})
	}
	if s.GPU != nil {
		add("gpu", model.TierSlow, func(ctx context.Context) Update {
			v := s.GPU.Collect(ctx)
			return func(f *model.Frame) { f.GPUs = v }
		})
	}
	if s.VM != nil {
		add("vm", model.TierSlow, func(ctx context.Context) Update {
			v := s.VM.Collect(ctx)
			return func(f *model.Frame) { f.VMs = v }
		})
	}
	if s.Temperature != nil {
		add("temperature", model.TierVerySlow, func(ctx context.Context) Update {
			v := s.Temperature.Collect(ctx)
			return func(f *model.Frame) { f.Temps = v }
		})
	}
	return tasks
}
