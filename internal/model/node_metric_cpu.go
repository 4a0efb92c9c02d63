package model

// CPUUsage is one /proc/stat line expressed as shares of the interval.
// Label is "cpu" for the aggregate or "cpuN" per core.
type CPUUsage struct {
	Label  string  `json:"label"`
	User   float64 `json:"user_pct"`
	Nice   float64 `json:"nice_pct"`
	System float64 `json:"system_pct"`
	IOWait float64 `json:"iowait_pct"`
	IRQ    float64 `json:"irq_pct"`
	Steal  float64 `json:"steal_pct"`
	Idle   float64 `json:"idle_pct"`
	Total  float64 `json:"total_pct"`
}
