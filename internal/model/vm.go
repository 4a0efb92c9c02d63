package model

// VMUsage is one libvirt domain sampled through domain stats.
type VMUsage struct {
	UUID                 string  `json:"uuid"`
	Name                 string  `json:"name"`
	State                string  `json:"state"`
	VCPUs                int     `json:"vcpus"`
	CPUPct               float64 `json:"cpu_pct"`
	MemBytes             uint64  `json:"mem_bytes"`
	DiskReadBytesPerSec  float64 `json:"disk_read_bytes_per_sec"`
	DiskWriteBytesPerSec float64 `json:"disk_write_bytes_per_sec"`
	NetRxBytesPerSec     float64 `json:"net_rx_bytes_per_sec"`
	NetTxBytesPerSec     float64 `json:"net_tx_bytes_per_sec"`
}
