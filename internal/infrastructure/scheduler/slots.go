package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// jobSlots is a bounded set of in-flight job ids. It caps how many jobs
// the manager runs at once and remembers exactly which ones are active,
// so a forced stop can cancel them individually.
type jobSlots struct {
	mu       sync.Mutex
	capacity int
	active   map[uuid.UUID]struct{}
}

func newJobSlots(capacity int) *jobSlots {
	return &jobSlots{
		capacity: capacity,
		active:   make(map[uuid.UUID]struct{}, capacity),
	}
}

// TryAcquire claims a slot for the job. It fails when the set is full or
// the job already holds a slot.
func (s *jobSlots) TryAcquire(jobID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active) >= s.capacity {
		return false
	}
	if _, ok := s.active[jobID]; ok {
		return false
	}
	s.active[jobID] = struct{}{}
	return true
}

// Release frees the job's slot. Releasing an unheld slot is a no-op.
func (s *jobSlots) Release(jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, jobID)
}

// Count returns the number of held slots
func (s *jobSlots) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Full returns true when no slot is free
func (s *jobSlots) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) >= s.capacity
}

// IDs returns a snapshot of the active job ids
func (s *jobSlots) IDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids
}
