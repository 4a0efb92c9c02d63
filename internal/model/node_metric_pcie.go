package model

type PCIeDevice struct {
	BDF       string `json:"bdf"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Kind      string `json:"kind"`
	Driver    string `json:"driver"`

	// Subsystem is the block device, interface or GPU the device backs,
	// when one could be correlated.
	Subsystem string `json:"subsystem,omitempty"`

	CurrentSpeed string `json:"current_speed"`
	MaxSpeed     string `json:"max_speed"`
	CurrentGen   string `json:"current_gen"`
	MaxGen       string `json:"max_gen"`
	CurrentWidth int    `json:"current_width"`
	MaxWidth     int    `json:"max_width"`

	LinkBandwidthGBs float64 `json:"link_bandwidth_gbs"`
	MaxBandwidthGBs  float64 `json:"max_bandwidth_gbs"`
	LinkUtilization  float64 `json:"link_utilization"`

	ReadBytesPerSec  float64 `json:"read_bytes_per_sec"`
	WriteBytesPerSec float64 `json:"write_bytes_per_sec"`
	IOUtilization    float64 `json:"io_utilization"`
}

// Degraded reports a link trained below its capability.
func (d PCIeDevice) Degraded() bool {
	return d.MaxBandwidthGBs > 0 && d.LinkBandwidthGBs < d.MaxBandwidthGBs
}
