package web

import (
	"sync"

	"github.com/panyam/queuesim/runtime"
)

// RunStore keeps the most recent results in a ring buffer so they can be
// fetched and plotted after the request that produced them.
type RunStore struct {
	mu       sync.RWMutex
	runs     []*runtime.Result
	index    map[string]int
	writePos int
	count    int
}

func NewRunStore(size int) *RunStore {
	if size < 1 {
		size = 1
	}
	return &RunStore{
		runs:  make([]*runtime.Result, size),
		index: make(map[string]int),
	}
}

// Add stores res, evicting the oldest run when full.
func (s *RunStore) Add(res *runtime.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old := s.runs[s.writePos]; old != nil {
		delete(s.index, old.RunID)
	}
	s.runs[s.writePos] = res
	s.index[res.RunID] = s.writePos
	s.writePos = (s.writePos + 1) % len(s.runs)
	if s.count < len(s.runs) {
		s.count++
	}
}

func (s *RunStore) Get(id string) (*runtime.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.runs[pos], true
}

// List returns the stored runs, newest first.
func (s *RunStore) List() []*runtime.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*runtime.Result, 0, s.count)
	for i := 1; i <= s.count; i++ {
		pos := (s.writePos - i + len(s.runs)) % len(s.runs)
		out = append(out, s.runs[pos])
	}
	return out
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
