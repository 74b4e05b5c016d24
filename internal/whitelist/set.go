package whitelist

import (
	"cmp"
	"slices"
	"sync"
)

// Set is a concurrency-safe membership set. Adds are additive and removals
// of absent members are no-ops.
type Set[K cmp.Ordered] struct {
	mu      sync.RWMutex
	members map[K]struct{}
}

func NewSet[K cmp.Ordered](initial ...K) *Set[K] {
	s := &Set[K]{members: make(map[K]struct{}, len(initial))}
	s.Add(initial...)
	return s
}

func (s *Set[K]) Add(values ...K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		s.members[v] = struct{}{}
	}
}

// Remove reports whether v was a member.
func (s *Set[K]) Remove(v K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[v]; !ok {
		return false
	}
	delete(s.members, v)
	return true
}

func (s *Set[K]) Contains(v K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[v]
	return ok
}

func (s *Set[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Members returns a sorted copy of the set.
func (s *Set[K]) Members() []K {
	s.mu.RLock()
	out := make([]K, 0, len(s.members))
	for k := range s.members {
		out = append(out, k)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}
