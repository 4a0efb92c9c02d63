package model

import "time"

type KernelInfo struct {
	Load1                 float64       `json:"load_1"`
	Load5                 float64       `json:"load_5"`
	Load15                float64       `json:"load_15"`
	LoadPerCPU            float64       `json:"load_per_cpu"`
	Running               int           `json:"procs_running"`
	Total                 int           `json:"procs_total"`
	Blocked               int           `json:"procs_blocked"`
	CPUs                  int           `json:"cpus"`
	Uptime                time.Duration `json:"uptime"`
	UptimeStr             string        `json:"uptime_str"`
	Release               string        `json:"release"`
	ContextSwitchesPerSec float64       `json:"context_switches_per_sec"`
	InterruptsPerSec      float64       `json:"interrupts_per_sec"`
}

type ProcessInfo struct {
	PID      int     `json:"pid"`
	Name     string  `json:"name"`
	Comm     string  `json:"comm"`
	CPUPct   float64 `json:"cpu_pct"`
	RSSBytes uint64  `json:"rss_bytes"`
}
