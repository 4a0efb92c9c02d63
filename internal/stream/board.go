// Package stream hands collected frames from the scheduler to renderers.
package stream

import (
	"maps"
	"sync"
	"time"

	"housekeeper/internal/model"
)

// Board holds the latest frame. Tier loops apply partial updates; renderers
// read copies and wait on subscription channels.
type Board struct {
	mu     sync.Mutex
	frame  model.Frame
	subs   map[int]chan struct{}
	nextID int
	now    func() time.Time
}

func NewBoard() *Board {
	return &Board{subs: map[int]chan struct{}{}, now: time.Now}
}

// Apply mutates the frame under the board lock and wakes subscribers.
// update must replace slices rather than edit them in place; readers share
// the backing arrays of earlier copies.
func (b *Board) Apply(update func(f *model.Frame)) {
	b.mu.Lock()
	update(&b.frame)
	b.frame.Seq++
	b.frame.UpdatedAt = b.now()
	subs := make([]chan struct{}, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SetTiming records one collector's elapsed time.
func (b *Board) SetTiming(name string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	timings := maps.Clone(b.frame.Timings)
	if timings == nil {
		timings = map[string]time.Duration{}
	}
	timings[name] = d
	b.frame.Timings = timings
}

// Latest returns a copy of the current frame.
func (b *Board) Latest() model.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Subscribe returns a channel signalled after each Apply. Signals coalesce;
// a slow reader sees one pending wake-up and reads Latest. Call cancel to
// release the subscription.
func (b *Board) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
