package model

type NetUsage struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	RxBytesPerSec float64  `json:"rx_bytes_per_sec"`
	TxBytesPerSec float64  `json:"tx_bytes_per_sec"`
	IsBond        bool     `json:"is_bond"`
	BondMode      string   `json:"bond_mode,omitempty"`
	Members       []string `json:"members,omitempty"`
	Master        string   `json:"master,omitempty"`
}

// IPTraffic aggregates established TCP connections by remote address.
type IPTraffic struct {
	RemoteIP         string  `json:"remote_ip"`
	SentBytesPerSec  float64 `json:"sent_bytes_per_sec"`
	RecvBytesPerSec  float64 `json:"recv_bytes_per_sec"`
	TotalBytesPerSec float64 `json:"total_bytes_per_sec"`
	Connections      int     `json:"connections"`
}
