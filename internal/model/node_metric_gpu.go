package model

const (
	GPUVendorNVIDIA = "nvidia"
	GPUVendorAMD    = "amd"
	GPUVendorGaudi  = "gaudi"
	GPUVendorApple  = "apple"
)

type GPUInfo struct {
	Index       int          `json:"index"`
	Vendor      string       `json:"vendor"`
	Name        string       `json:"name"`
	UUID        string       `json:"uuid,omitempty"`
	UtilPct     float64      `json:"util_pct"`
	MemUsedMiB  float64      `json:"mem_used_mib"`
	MemTotalMiB float64      `json:"mem_total_mib"`
	TempC       float64      `json:"temp_c"`
	PowerW      float64      `json:"power_w"`
	PowerLimitW float64      `json:"power_limit_w"`
	FanPct      float64      `json:"fan_pct"`
	EncoderPct  float64      `json:"encoder_pct"`
	DecoderPct  float64      `json:"decoder_pct"`
	RendererPct float64      `json:"renderer_pct,omitempty"`
	TilerPct    float64      `json:"tiler_pct,omitempty"`
	Cores       int          `json:"cores,omitempty"`
	Processes   []GPUProcess `json:"processes,omitempty"`
}

// MemPct returns used memory as a percentage of total, or 0.
func (g GPUInfo) MemPct() float64 {
	if g.MemTotalMiB <= 0 {
		return 0
	}
	return g.MemUsedMiB / g.MemTotalMiB * 100
}

type GPUProcess struct {
	PID    int     `json:"pid"`
	Name   string  `json:"name"`
	MemMiB float64 `json:"mem_mib"`
}
