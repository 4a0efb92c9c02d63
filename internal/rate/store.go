package rate

import "sync"

// Store holds the previous snapshot for one collector. The only way to touch
// it is ReadAndAdvance, which diffs and replaces under one lock.
type Store struct {
	mu   sync.Mutex
	diff Differ
	prev *Snapshot
}

// NewStore returns a store on the per-second path.
func NewStore() *Store {
	return &Store{diff: Compute}
}

// NewShareStore returns a store on the counter-ratio path.
func NewShareStore() *Store {
	return &Store{diff: ComputeShares}
}

func (s *Store) ReadAndAdvance(cur Snapshot) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.diff(s.prev, cur)
	next := cur.clone()
	s.prev = &next
	return out
}
