package mining

import "sync"

// Archive collects the patterns of a search. With m > 0 it keeps only the
// patterns that no other pattern dominates on the first m measures (a
// skyline); with m == 0 it keeps every pattern.
//
// Archive is safe for concurrent reads while a search appends to it.
type Archive struct {
	mu       sync.RWMutex
	m        int
	patterns []Pattern
}

// NewArchive creates an archive comparing the first m measures.
func NewArchive(m int) *Archive { return &Archive{m: m} }

// Dimensions returns the number of measures used for dominance.
func (a *Archive) Dimensions() int { return a.m }

// Add inserts p and drops the patterns it dominates. A pattern dominated by
// an archived one is refused and Add returns false.
func (a *Archive) Add(p Pattern) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == 0 {
		a.patterns = append(a.patterns, p)
		return true
	}
	for _, q := range a.patterns {
		if p.IsDominatedBy(q, a.m) {
			return false
		}
	}
	kept := a.patterns[:0]
	for _, q := range a.patterns {
		if !q.IsDominatedBy(p, a.m) {
			kept = append(kept, q)
		}
	}
	a.patterns = append(kept, p)
	return true
}

// Patterns returns a copy of the archived patterns, in insertion order.
func (a *Archive) Patterns() []Pattern {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Pattern(nil), a.patterns...)
}

// Len returns the number of archived patterns.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.patterns)
}

// each calls fn on every archived pattern until fn returns false.
func (a *Archive) each(fn func(Pattern) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range a.patterns {
		if !fn(p) {
			return
		}
	}
}
