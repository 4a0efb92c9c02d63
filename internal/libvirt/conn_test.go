package libvirt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
)

var errRefused = errors.New("connection refused")

func newTestManager(uri string, clk clock.Clock) (*ConnManager, *int) {
	m := NewConnManager(uri, 3*time.Second, 0, clk, slog.New(slog.NewTextHandler(io.Discard, nil)))
	dials := 0
	m.dial = func(*url.URL) (*golibvirt.Libvirt, error) {
		dials++
		return nil, errRefused
	}
	return m, &dials
}

func TestClientBacksOffAfterFailedDial(t *testing.T) {
	clk := clock.Fake(clock.Mono(time.Minute))
	m, dials := newTestManager("", clk)

	_, err := m.Client(context.Background())
	require.ErrorIs(t, err, errRefused)
	assert.Equal(t, 1, *dials)

	_, err = m.Client(context.Background())
	assert.ErrorIs(t, err, ErrBackoff)
	assert.Equal(t, 1, *dials)

	clk.Advance(3 * time.Second)
	_, err = m.Client(context.Background())
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, 2, *dials)
	assert.False(t, m.Connected())
}

func TestDomainsSurfacesBackoff(t *testing.T) {
	m, _ := newTestManager("", clock.Fake(clock.Mono(time.Minute)))
	_, _ = m.Domains(context.Background())
	_, err := m.Domains(context.Background())
	assert.ErrorIs(t, err, ErrBackoff)
}

func TestClientHonoursCancelledContext(t *testing.T) {
	m, dials := newTestManager("", clock.Real())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Client(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, *dials)
}

func TestCloseWithoutConnection(t *testing.T) {
	m, _ := newTestManager("", clock.Real())
	assert.NoError(t, m.Close())
	m.Drop()
}

func TestParseURI(t *testing.T) {
	cases := map[string]string{
		"":                         string(golibvirt.QEMUSystem),
		"qemu+tcp://kvm01/system":  "qemu+tcp://kvm01/system",
		"qemu:///session":          "qemu:///session",
		"not-a-uri-without-scheme": string(golibvirt.QEMUSystem),
	}
	for raw, want := range cases {
		m, _ := newTestManager(raw, clock.Real())
		got, err := m.parseURI()
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.String(), raw)
	}
}

func TestJitterBounded(t *testing.T) {
	m := NewConnManager("", time.Second, 500*time.Millisecond, clock.Real(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	for range 100 {
		j := m.jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 500*time.Millisecond)
	}
}

func TestSumBySuffix(t *testing.T) {
	fields := map[string]uint64{
		"block.0" + golibvirt.DomainStatsBlockSuffixRdBytes: 100,
		"block.1" + golibvirt.DomainStatsBlockSuffixRdBytes: 50,
		"block.0" + golibvirt.DomainStatsBlockSuffixWrBytes: 7,
		golibvirt.DomainStatsCPUTime:                        99,
	}
	read, write := sumBySuffix(fields, golibvirt.DomainStatsBlockSuffixRdBytes, golibvirt.DomainStatsBlockSuffixWrBytes)
	assert.Equal(t, uint64(150), read)
	assert.Equal(t, uint64(7), write)
}

func TestAsUint64(t *testing.T) {
	assert.Equal(t, uint64(5), asUint64(uint32(5)))
	assert.Equal(t, uint64(0), asUint64(int64(-3)))
	assert.Equal(t, uint64(2), asUint64(2.9))
	assert.Equal(t, uint64(0), asUint64("7"))
}

func TestUUIDAndState(t *testing.T) {
	u := golibvirt.UUID{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	assert.Equal(t, "12345678-9abc-def0-1122-334455667788", uuidToString(u))
	assert.Equal(t, "running", domainStateString(1))
	assert.Equal(t, "unknown", domainStateString(42))
}
