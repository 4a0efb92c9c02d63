package clock

import (
	"sync"
	"time"
)

// Instant is a monotonic reading relative to the process clock epoch.
// It carries no wall-clock component, so NTP steps never move it.
type Instant struct {
	ns int64
}

// Mono returns the instant d after the clock epoch. Used by fakes and fixtures.
func Mono(d time.Duration) Instant {
	return Instant{ns: int64(d)}
}

func (i Instant) Sub(o Instant) time.Duration {
	return time.Duration(i.ns - o.ns)
}

func (i Instant) Add(d time.Duration) Instant {
	return Instant{ns: i.ns + int64(d)}
}

func (i Instant) Seconds() float64 {
	return time.Duration(i.ns).Seconds()
}

func (i Instant) IsZero() bool {
	return i.ns == 0
}

// Clock is the time source used by collectors and the scheduler.
type Clock interface {
	Now() Instant
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type realClock struct {
	epoch time.Time
}

// Real returns a clock backed by the runtime monotonic clock.
func Real() Clock {
	return realClock{epoch: time.Now()}
}

func (c realClock) Now() Instant {
	// time.Since uses the monotonic reading embedded in epoch.
	return Instant{ns: int64(time.Since(c.epoch)) + 1}
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time  { return r.t.C }
func (r *realTicker) Reset(d time.Duration) { r.t.Reset(d) }
func (r *realTicker) Stop()                 { r.t.Stop() }

// FakeClock is advanced by hand. Tickers and After channels fire when
// Advance crosses their deadline.
type FakeClock struct {
	mu      sync.Mutex
	now     Instant
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline Instant
	period   time.Duration
	ch       chan time.Time
	stopped  bool
}

func Fake(start Instant) *FakeClock {
	return &FakeClock{now: start}
}

func (f *FakeClock) Now() Instant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to i without firing waiters. It may move backwards,
// which lets tests reproduce suspend/resume anomalies.
func (f *FakeClock) Set(i Instant) {
	f.mu.Lock()
	f.now = i
	f.mu.Unlock()
}

func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	live := f.waiters[:0]
	for _, w := range f.waiters {
		if w.stopped {
			continue
		}
		for now.Sub(w.deadline) >= 0 {
			select {
			case w.ch <- time.Unix(0, now.ns):
			default:
			}
			if w.period <= 0 {
				w.stopped = true
				break
			}
			w.deadline = w.deadline.Add(w.period)
		}
		if !w.stopped {
			live = append(live, w)
		}
	}
	f.waiters = live
	f.mu.Unlock()
}

func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	return w.ch
}

func (f *FakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{deadline: f.now.Add(d), period: d, ch: make(chan time.Time, 1)}
	f.waiters = append(f.waiters, w)
	return &fakeTicker{clock: f, w: w}
}

type fakeTicker struct {
	clock *FakeClock
	w     *fakeWaiter
}

func (t *fakeTicker) C() <-chan time.Time { return t.w.ch }

func (t *fakeTicker) Reset(d time.Duration) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.w.period = d
	t.w.deadline = t.clock.now.Add(d)
	if t.w.stopped {
		t.w.stopped = false
		t.clock.waiters = append(t.clock.waiters, t.w)
	}
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	t.w.stopped = true
	t.clock.mu.Unlock()
}
