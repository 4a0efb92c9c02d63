package libvirt

import (
	"context"
	"fmt"
	"strings"

	golibvirt "github.com/digitalocean/go-libvirt"
)

// Domain is one raw counter reading of a libvirt domain. Counters are
// cumulative; rates are derived by the caller.
type Domain struct {
	UUID       string
	Name       string
	State      string
	VCPUs      uint64
	CPUTimeNs  uint64
	BalloonKiB uint64
	MaxKiB     uint64
	DiskRead   uint64
	DiskWrite  uint64
	NetRx      uint64
	NetTx      uint64
}

const statsMask = uint32(golibvirt.DomainStatsCPUTotal | golibvirt.DomainStatsBalloon |
	golibvirt.DomainStatsInterface | golibvirt.DomainStatsBlock |
	golibvirt.DomainStatsState | golibvirt.DomainStatsVCPU)

// Domains lists every defined domain with its bulk stats.
func (m *ConnManager) Domains(ctx context.Context) ([]Domain, error) {
	client, err := m.Client(ctx)
	if err != nil {
		return nil, err
	}

	doms, _, err := client.ConnectListAllDomains(1, 0)
	if err != nil {
		m.Drop()
		return nil, fmt.Errorf("ConnectListAllDomains: %w", err)
	}
	if len(doms) == 0 {
		return nil, nil
	}
	records, err := client.ConnectGetAllDomainStats(doms, statsMask, 0)
	if err != nil {
		m.Drop()
		return nil, fmt.Errorf("ConnectGetAllDomainStats: %w", err)
	}

	out := make([]Domain, 0, len(records))
	for _, rec := range records {
		fields := map[string]uint64{}
		state := "unknown"
		for _, p := range rec.Params {
			if strings.EqualFold(p.Field, golibvirt.DomainStatsStateState) {
				state = domainStateString(asUint64(p.Value.I))
				continue
			}
			fields[p.Field] = asUint64(p.Value.I)
		}
		d := Domain{
			UUID:       uuidToString(rec.Dom.UUID),
			Name:       rec.Dom.Name,
			State:      state,
			VCPUs:      fields[golibvirt.DomainStatsVCPUCurrent],
			CPUTimeNs:  fields[golibvirt.DomainStatsCPUTime],
			BalloonKiB: fields[golibvirt.DomainStatsBalloonCurrent],
			MaxKiB:     fields[golibvirt.DomainStatsBalloonMaximum],
		}
		d.DiskRead, d.DiskWrite = sumBySuffix(fields, golibvirt.DomainStatsBlockSuffixRdBytes, golibvirt.DomainStatsBlockSuffixWrBytes)
		d.NetRx, d.NetTx = sumBySuffix(fields, golibvirt.DomainStatsNetSuffixRxBytes, golibvirt.DomainStatsNetSuffixTxBytes)
		out = append(out, d)
	}
	return out, nil
}

func sumBySuffix(fields map[string]uint64, readSuffix, writeSuffix string) (uint64, uint64) {
	var read, write uint64
	for k, v := range fields {
		switch {
		case strings.HasSuffix(k, readSuffix):
			read += v
		case strings.HasSuffix(k, writeSuffix):
			write += v
		}
	}
	return read, write
}

func asUint64(v any) uint64 {
	switch t := v.(type) {
	case uint64:
		return t
	case uint32:
		return uint64(t)
	case int64:
		return uint64(max(t, 0))
	case int32:
		return uint64(max(t, 0))
	case int:
		return uint64(max(t, 0))
	case float64:
		return uint64(max(t, 0))
	default:
		return 0
	}
}

func uuidToString(u golibvirt.UUID) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

var domainStates = []string{"nostate", "running", "blocked", "paused", "shutdown", "shutoff", "crashed", "pmsuspended"}

func domainStateString(v uint64) string {
	if v < uint64(len(domainStates)) {
		return domainStates[v]
	}
	return "unknown"
}
