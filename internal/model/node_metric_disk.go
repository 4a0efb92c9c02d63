package model

type DiskUsage struct {
	Name             string  `json:"name"`
	ReadBytesPerSec  float64 `json:"read_bytes_per_sec"`
	WriteBytesPerSec float64 `json:"write_bytes_per_sec"`
	ReadIOPS         float64 `json:"read_iops"`
	WriteIOPS        float64 `json:"write_iops"`
}

// NetMount is a network filesystem mount. Rates are zero when the kernel
// exposes no per-mount counters for the filesystem type.
type NetMount struct {
	MountPoint       string  `json:"mount_point"`
	Device           string  `json:"device"`
	ShortDevice      string  `json:"short_device"`
	FSType           string  `json:"fs_type"`
	Label            string  `json:"label"`
	HasStats         bool    `json:"has_stats"`
	ReadBytesPerSec  float64 `json:"read_bytes_per_sec"`
	WriteBytesPerSec float64 `json:"write_bytes_per_sec"`
	ReadOpsPerSec    float64 `json:"read_ops_per_sec"`
	WriteOpsPerSec   float64 `json:"write_ops_per_sec"`
}
