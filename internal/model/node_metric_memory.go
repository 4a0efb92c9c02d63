package model

type MemoryUsage struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	FreeBytes      uint64  `json:"free_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	BuffersBytes   uint64  `json:"buffers_bytes"`
	CachedBytes    uint64  `json:"cached_bytes"`
	UsedPct        float64 `json:"used_pct"`
}

type SwapUsage struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	CachedBytes uint64  `json:"cached_bytes"`
	UsedPct     float64 `json:"used_pct"`
}

// MemBandwidth is the resctrl MBM rate summed over all L3 domains.
type MemBandwidth struct {
	TotalBytesPerSec float64 `json:"total_bytes_per_sec"`
	LocalBytesPerSec float64 `json:"local_bytes_per_sec"`
	Domains          int     `json:"domains"`
}
