package agent

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"gopkg.in/yaml.v3"

	"housekeeper/internal/system"
)

// DetectReport summarises which data sources exist on this host.
type DetectReport struct {
	OS         string          `yaml:"os"`
	Arch       string          `yaml:"arch"`
	Kernel     string          `yaml:"kernel,omitempty"`
	CPUs       int             `yaml:"cpus"`
	Collectors map[string]bool `yaml:"collectors"`
	GPUVendors []string        `yaml:"gpu_vendors,omitempty"`
	Tools      map[string]bool `yaml:"tools"`
}

var detectTools = []string{"nvidia-smi", "rocm-smi", "hl-smi", "ipmitool", "lspci", "ss"}

// Detect reports probe results without starting any loop.
func (a *Agent) Detect(ctx context.Context) DetectReport {
	r := DetectReport{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Collectors: map[string]bool{},
		Tools:      map[string]bool{},
	}
	if h, err := a.platform.Host.Host(ctx); err == nil {
		r.Kernel = h.Release
		r.CPUs = h.CPUs
	}

	s := a.set
	r.Collectors["cpu"] = s.CPU != nil
	r.Collectors["memory"] = s.Memory != nil
	r.Collectors["disk"] = s.Disk != nil
	r.Collectors["network"] = s.Network != nil
	r.Collectors["kernel"] = s.Kernel != nil
	r.Collectors["processes"] = s.Processes != nil
	r.Collectors["netfs"] = s.NetFS != nil && s.NetFS.Probe(ctx)
	r.Collectors["membw"] = s.MemBW != nil
	r.Collectors["connections"] = s.Connections != nil
	r.Collectors["pcie"] = s.PCIe != nil
	r.Collectors["gpu"] = s.GPU != nil
	r.Collectors["temperature"] = s.Temperature != nil
	r.Collectors["vm"] = s.VM != nil && s.VM.Probe(ctx)
	if s.GPU != nil {
		r.GPUVendors = s.GPU.Vendors(ctx)
	}
	for _, tool := range detectTools {
		r.Tools[tool] = system.Available(a.runner, tool)
	}
	return r
}

func WriteDetect(w io.Writer, r DetectReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode detect report: %w", err)
	}
	return enc.Close()
}
