package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
	"housekeeper/internal/libvirt"
)

type scriptedDomains struct {
	rounds [][]libvirt.Domain
	err    error
	calls  int
}

func (s *scriptedDomains) Domains(context.Context) ([]libvirt.Domain, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := min(s.calls, len(s.rounds)-1)
	s.calls++
	return s.rounds[i], nil
}

func (s *scriptedDomains) Connected() bool { return s.err == nil }

func TestVMRatesShareOfHost(t *testing.T) {
	web := libvirt.Domain{UUID: "u-web", Name: "web", State: "running", VCPUs: 2, BalloonKiB: 2048}
	db := libvirt.Domain{UUID: "u-db", Name: "db", State: "running", VCPUs: 4}
	web2, db2 := web, db
	web2.CPUTimeNs = 2e9
	web2.DiskRead = 4096
	web2.NetTx = 1500
	db2.CPUTimeNs = 10e9

	lister := &scriptedDomains{rounds: [][]libvirt.Domain{{web, db}, {web2, db2}}}
	clk := clock.Fake(at(0))
	c := NewVMCollector(lister, clk, 4, discardLogger())
	require.True(t, c.Probe(context.Background()))

	first := c.Collect(context.Background())
	require.Len(t, first, 2)
	assert.Zero(t, first[0].CPUPct)

	clk.Advance(time.Second)
	out := c.Collect(context.Background())
	require.Len(t, out, 2)
	assert.Equal(t, "db", out[0].Name)
	assert.Equal(t, 100.0, out[0].CPUPct, "clamped")
	assert.Equal(t, "web", out[1].Name)
	assert.InDelta(t, 50.0, out[1].CPUPct, 1e-9)
	assert.Equal(t, uint64(2048*1024), out[1].MemBytes)
	assert.InDelta(t, 4096.0, out[1].DiskReadBytesPerSec, 1e-9)
	assert.InDelta(t, 1500.0, out[1].NetTxBytesPerSec, 1e-9)
	assert.Equal(t, 2, out[1].VCPUs)
}

func TestVMListerDown(t *testing.T) {
	c := NewVMCollector(&scriptedDomains{err: libvirt.ErrBackoff}, clock.Real(), 0, discardLogger())
	assert.False(t, c.Probe(context.Background()))
	assert.Empty(t, c.Collect(context.Background()))
}
