package mailbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotEmpty(t *testing.T) {
	s := NewSlot[int]()
	_, ok := s.TryTake()
	assert.False(t, ok)
}

func TestSlotLatestWins(t *testing.T) {
	s := NewSlot[string]()
	s.Put("a")
	s.Put("b")
	v, ok := s.TryTake()
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = s.TryTake()
	assert.False(t, ok, "take empties the slot")
}

func TestSlotReadySignal(t *testing.T) {
	s := NewSlot[int]()
	s.Put(1)
	s.Put(2)
	<-s.Ready()
	select {
	case <-s.Ready():
		t.Fatal("ready should coalesce")
	default:
	}
	v, _ := s.TryTake()
	assert.Equal(t, 2, v)
}

func TestSlotConcurrentProducerConsumer(t *testing.T) {
	s := NewSlot[int]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			s.Put(i)
		}
	}()

	last := 0
	for last < 1000 {
		if v, ok := s.TryTake(); ok {
			assert.Greater(t, v, last)
			last = v
		}
	}
	wg.Wait()
}
