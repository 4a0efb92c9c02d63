// Package source holds the platform counter readers that feed the rate
// engine. Linux reads /proc through prometheus/procfs; every other platform
// goes through gopsutil. Implementations are picked at build time.
package source

import (
	"context"
	"errors"
	"time"

	"housekeeper/internal/rate"
)

// ErrUnavailable marks a source that does not exist on this host.
var ErrUnavailable = errors.New("source unavailable")

// Source returns one timestamped counter snapshot per call.
type Source interface {
	Read(ctx context.Context) (rate.Snapshot, error)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context) (rate.Snapshot, error)

func (f Func) Read(ctx context.Context) (rate.Snapshot, error) { return f(ctx) }

// Counter field names shared by platform implementations and collectors.
const (
	FieldUser    = "user"
	FieldNice    = "nice"
	FieldSystem  = "system"
	FieldIdle    = "idle"
	FieldIOWait  = "iowait"
	FieldIRQ     = "irq"
	FieldSoftIRQ = "softirq"
	FieldSteal   = "steal"

	FieldReadSectors  = "read_sectors"
	FieldWriteSectors = "write_sectors"
	FieldReadIOs      = "read_ios"
	FieldWriteIOs     = "write_ios"

	FieldRxBytes = "rx_bytes"
	FieldTxBytes = "tx_bytes"

	FieldContextSwitches = "ctxt"
	FieldInterrupts      = "intr"

	FieldCPUSeconds = "cpu_seconds"

	// KernelKey is the single entity key of the kernel counter snapshot.
	KernelKey = "kernel"
)

// CPUFields lists the jiffy fields in /proc/stat order.
var CPUFields = []string{
	FieldUser, FieldNice, FieldSystem, FieldIdle,
	FieldIOWait, FieldIRQ, FieldSoftIRQ, FieldSteal,
}

// Memory is a gauge reading in bytes.
type Memory struct {
	Total        uint64
	Free         uint64
	Available    uint64
	Buffers      uint64
	Cached       uint64
	SReclaimable uint64
	SwapTotal    uint64
	SwapFree     uint64
	SwapCached   uint64
}

// Host carries the kernel gauges that are not rates.
type Host struct {
	Load1        float64
	Load5        float64
	Load15       float64
	Running      int
	Total        int
	Uptime       time.Duration
	CPUs         int
	Release      string
	ProcsBlocked int
}

// Process is per-pid metadata that rides along with the cpu_seconds snapshot.
type Process struct {
	PID     int
	Comm    string
	Cmdline []string
	RSS     uint64
}

type MemorySource interface {
	Memory(ctx context.Context) (Memory, error)
}

type HostSource interface {
	Host(ctx context.Context) (Host, error)
}

// ProcessSource returns a snapshot keyed by "pid/starttime" with the
// cpu_seconds field, plus metadata under the same keys.
type ProcessSource interface {
	Processes(ctx context.Context) (rate.Snapshot, map[string]Process, error)
}

// Mount is one mounted filesystem with the NFS byte and op counters when the
// kernel exposes them in mountstats.
type Mount struct {
	Device     string
	MountPoint string
	FSType     string
	HasStats   bool
	ReadBytes  uint64
	WriteBytes uint64
	ReadOps    uint64
	WriteOps   uint64
}

type MountSource interface {
	Mounts(ctx context.Context) ([]Mount, error)
}

// Platform bundles the sources of one host.
type Platform struct {
	CPU       Source
	Disk      Source
	Net       Source
	Kernel    Source
	Memory    MemorySource
	Host      HostSource
	Processes ProcessSource
	Mounts    MountSource
}
