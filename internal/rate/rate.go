// Package rate turns pairs of counter snapshots into per-second rates.
//
// Two paths exist. Compute divides each counter delta by elapsed seconds and
// is used for bytes, sectors, operations and events. ComputeShares divides
// each delta by the summed delta of all fields of the same key and is used
// for CPU jiffies, where percentages are ratios rather than time rates.
package rate

import (
	"math"
	"sort"

	"housekeeper/internal/clock"
)

const (
	SectorBytes = 512
	BitsPerByte = 8
)

// Fields holds named raw counters for one entity.
type Fields map[string]float64

func (f Fields) Get(name string) float64 {
	if f == nil {
		return 0
	}
	return f[name]
}

// Snapshot is one timestamped reading of every entity a source exposes.
type Snapshot struct {
	At     clock.Instant
	Values map[string]Fields
}

func NewSnapshot(at clock.Instant) Snapshot {
	return Snapshot{At: at, Values: make(map[string]Fields)}
}

// Set records a counter value, creating the entity if needed.
func (s Snapshot) Set(key, field string, v float64) {
	f, ok := s.Values[key]
	if !ok {
		f = Fields{}
		s.Values[key] = f
	}
	f[field] = v
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{At: s.At, Values: make(map[string]Fields, len(s.Values))}
	for k, f := range s.Values {
		c := make(Fields, len(f))
		for name, v := range f {
			c[name] = v
		}
		out.Values[k] = c
	}
	return out
}

// Record maps entity key to computed rate fields.
type Record map[string]Fields

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the rate for key/field, or 0 if the entity is absent.
func (r Record) Get(key, field string) float64 {
	return r[key].Get(field)
}

// Sum adds one field across all entities.
func Sum(r Record, field string) float64 {
	var total float64
	for _, f := range r {
		total += f[field]
	}
	return total
}

// Differ computes a record from an optional previous snapshot.
type Differ func(prev *Snapshot, cur Snapshot) Record

// Compute is the generic per-second path: max(0, cur-prev)/dt per field.
func Compute(prev *Snapshot, cur Snapshot) Record {
	out := make(Record, len(cur.Values))
	dt := elapsed(prev, cur)
	for key, fields := range cur.Values {
		rates := make(Fields, len(fields))
		var before Fields
		if prev != nil {
			before = prev.Values[key]
		}
		for name, v := range fields {
			if dt <= 0 || before == nil {
				rates[name] = 0
				continue
			}
			p, ok := before[name]
			if !ok {
				rates[name] = 0
				continue
			}
			rates[name] = finite(delta(v, p) / dt)
		}
		out[key] = rates
	}
	return out
}

// ComputeShares is the counter-ratio path used for CPU time: each field's
// delta as a percentage of the key's summed delta.
func ComputeShares(prev *Snapshot, cur Snapshot) Record {
	out := make(Record, len(cur.Values))
	dt := elapsed(prev, cur)
	for key, fields := range cur.Values {
		shares := make(Fields, len(fields))
		var before Fields
		if prev != nil {
			before = prev.Values[key]
		}
		if dt <= 0 || before == nil {
			for name := range fields {
				shares[name] = 0
			}
			out[key] = shares
			continue
		}

		deltas := make(Fields, len(fields))
		var total float64
		for name, v := range fields {
			p, ok := before[name]
			if !ok {
				deltas[name] = 0
				continue
			}
			d := delta(v, p)
			deltas[name] = d
			total += d
		}
		for name, d := range deltas {
			if total <= 0 {
				shares[name] = 0
				continue
			}
			shares[name] = finite(100 * d / total)
		}
		out[key] = shares
	}
	return out
}

func elapsed(prev *Snapshot, cur Snapshot) float64 {
	if prev == nil {
		return 0
	}
	return cur.At.Sub(prev.At).Seconds()
}

// delta treats any decrease as a counter reset.
func delta(cur, prev float64) float64 {
	d := cur - prev
	if d <= 0 || math.IsNaN(d) {
		return 0
	}
	return d
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
