package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeakStartsAtFloor(t *testing.T) {
	p := NewPeak()
	assert.Equal(t, DefaultFloor, p.Peak())
	assert.InDelta(t, DefaultFloor*DefaultHeadroom, p.Scale(), 1e-9)
}

func TestPeakTracksIncreasingSeriesExactly(t *testing.T) {
	p := NewPeak()
	for _, v := range []float64{2_000, 5_000, 5_001, 80_000, 1e9} {
		got := p.Update(v)
		assert.Equal(t, v, p.Peak())
		assert.InDelta(t, v*1.2, got, 1e-6)
	}
}

func TestPeakDecaysTowardFloor(t *testing.T) {
	p := NewPeak()
	p.Update(1_000_000)
	prev := p.Peak()
	for i := 0; i < 400; i++ {
		p.Update(1)
		cur := p.Peak()
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, DefaultFloor)
		if prev*DefaultDecay > DefaultFloor {
			assert.InDelta(t, prev*DefaultDecay, cur, 1e-6)
		}
		prev = cur
	}
	assert.Equal(t, DefaultFloor, p.Peak())
}

func TestPeakNeverDropsBelowLatestObservation(t *testing.T) {
	p := NewPeak()
	p.Update(100_000)
	p.Update(99_000)
	assert.Equal(t, 99_000.0, p.Peak())
	p.Update(98_000)
	assert.Equal(t, 98_000.0, p.Peak())
	p.Update(10)
	assert.InDelta(t, 98_000*0.95, p.Peak(), 1e-6)
}

func TestPeakIgnoresGarbage(t *testing.T) {
	p := NewPeak()
	p.Update(math.NaN())
	p.Update(math.Inf(1))
	p.Update(-5)
	assert.Equal(t, DefaultFloor, p.Peak())
}

func TestPeakOptions(t *testing.T) {
	p := NewPeak(WithFloor(10), WithDecay(0.5), WithHeadroom(2))
	p.Update(100)
	p.Update(0)
	assert.Equal(t, 50.0, p.Peak())
	assert.Equal(t, 100.0, p.Scale())

	bad := NewPeak(WithFloor(-1), WithDecay(1.5), WithHeadroom(0.5))
	assert.Equal(t, DefaultFloor, bad.Peak())
	assert.InDelta(t, DefaultFloor*DefaultHeadroom, bad.Scale(), 1e-9)
}

func TestMaxOf(t *testing.T) {
	assert.Equal(t, 0.0, MaxOf())
	assert.Equal(t, 7.0, MaxOf(3, 7, 1))
}
