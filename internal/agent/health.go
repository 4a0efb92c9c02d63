package agent

import (
	"sync/atomic"
	"time"

	"housekeeper/internal/model"
)

type HealthStatus struct {
	libvirtConnected atomic.Bool
	ipmiAvailable    atomic.Bool
	lastFastAt       atomic.Int64
	lastSlowAt       atomic.Int64
	lastVerySlowAt   atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetLibvirtConnected(ok bool) {
	h.libvirtConnected.Store(ok)
}

func (h *HealthStatus) SetIPMIAvailable(ok bool) {
	h.ipmiAvailable.Store(ok)
}

// MarkPass records the completion time of a tier pass.
func (h *HealthStatus) MarkPass(tier model.Tier, ts time.Time) {
	switch tier {
	case model.TierFast:
		h.lastFastAt.Store(ts.UnixNano())
	case model.TierSlow:
		h.lastSlowAt.Store(ts.UnixNano())
	case model.TierVerySlow:
		h.lastVerySlowAt.Store(ts.UnixNano())
	}
}

// LastPass returns the most recent pass of any tier.
func (h *HealthStatus) LastPass() (time.Time, bool) {
	latest := max(h.lastFastAt.Load(), h.lastSlowAt.Load(), h.lastVerySlowAt.Load())
	if latest == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, latest), true
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"libvirt_connected": h.libvirtConnected.Load(),
		"ipmi_available":    h.ipmiAvailable.Load(),
	}
	if v := h.lastFastAt.Load(); v > 0 {
		out["last_fast_pass_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastSlowAt.Load(); v > 0 {
		out["last_slow_pass_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastVerySlowAt.Load(); v > 0 {
		out["last_very_slow_pass_at"] = time.Unix(0, v).UTC()
	}
	return out
}
