// Package scale sizes chart axes from a decaying running maximum.
package scale

import "math"

const (
	DefaultFloor    = 1000.0
	DefaultDecay    = 0.95
	DefaultHeadroom = 1.2
)

// Peak jumps up to any new maximum at once and relaxes geometrically toward
// the floor afterwards, never below the latest observation.
type Peak struct {
	peak     float64
	floor    float64
	decay    float64
	headroom float64
}

type Option func(*Peak)

func WithFloor(v float64) Option {
	return func(p *Peak) {
		if v > 0 {
			p.floor = v
		}
	}
}

func WithDecay(v float64) Option {
	return func(p *Peak) {
		if v > 0 && v < 1 {
			p.decay = v
		}
	}
}

func WithHeadroom(v float64) Option {
	return func(p *Peak) {
		if v >= 1 {
			p.headroom = v
		}
	}
}

func NewPeak(opts ...Option) *Peak {
	p := &Peak{floor: DefaultFloor, decay: DefaultDecay, headroom: DefaultHeadroom}
	for _, opt := range opts {
		opt(p)
	}
	p.peak = p.floor
	return p
}

// Update feeds one observation and returns the scale to draw with.
func (p *Peak) Update(observed float64) float64 {
	if math.IsNaN(observed) || math.IsInf(observed, 0) || observed < 0 {
		observed = 0
	}
	if observed > p.peak {
		p.peak = observed
	} else {
		p.peak = math.Max(math.Max(p.peak*p.decay, observed), p.floor)
	}
	return p.Scale()
}

func (p *Peak) Peak() float64 {
	return p.peak
}

func (p *Peak) Scale() float64 {
	return p.peak * p.headroom
}

// MaxOf returns the largest value, used to fold several series (read and
// write, rx and tx) into the single observation a tracker takes.
func MaxOf(values ...float64) float64 {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
