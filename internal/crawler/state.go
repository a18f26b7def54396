package crawler

import (
	"sync"
	"sync/atomic"
)

// State is the aggregate shared by every traversal of one crawl: the set of
// admitted URLs and the running word counts. All methods are safe for
// concurrent use.
type State struct {
	visited      sync.Map // url -> struct{}
	visitedCount atomic.Int64
	words        sync.Map // word -> *atomic.Int64
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// TryVisit admits url and reports whether this call was the one that did.
// Exactly one caller per distinct URL observes true.
func (s *State) TryVisit(url string) bool {
	if _, loaded := s.visited.LoadOrStore(url, struct{}{}); loaded {
		return false
	}
	s.visitedCount.Add(1)
	return true
}

// Visited reports whether url has already been admitted. A false result is
// only a hint; TryVisit decides admission.
func (s *State) Visited(url string) bool {
	_, ok := s.visited.Load(url)
	return ok
}

// MergeWordCounts adds each page count into the shared totals.
func (s *State) MergeWordCounts(counts map[string]int) {
	for word, n := range counts {
		s.counter(word).Add(int64(n))
	}
}

func (s *State) counter(word string) *atomic.Int64 {
	if v, ok := s.words.Load(word); ok {
		return v.(*atomic.Int64)
	}
	v, _ := s.words.LoadOrStore(word, new(atomic.Int64))
	return v.(*atomic.Int64)
}

// Snapshot copies the current totals. The copy is only consistent once every
// traversal writing to s has returned.
func (s *State) Snapshot() map[string]int {
	out := make(map[string]int)
	s.words.Range(func(k, v any) bool {
		out[k.(string)] = int(v.(*atomic.Int64).Load())
		return true
	})
	return out
}

// VisitedCount reports how many URLs have been admitted.
func (s *State) VisitedCount() int {
	return int(s.visitedCount.Load())
}
