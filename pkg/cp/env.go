// Package cp provides a small constraint-programming engine: reversible
// storage cells restored by a trail, bounded integer variables, propagator
// scheduling up to a fixpoint and a depth-first search with pluggable
// variable and value selection.
//
// The engine is built for propagators that keep their incremental state in
// reversible cells. Every write to a cell made after PushWorld is undone by
// the matching PopWorld, so a propagator never has to restore anything itself.
package cp

// trailEntry records the value a cell held before its first write in a world.
type trailEntry struct {
	intCell  *StateInt
	wordCell *StateUint64
	intVal   int
	wordVal  uint64
	stamp    int
}

// Env owns the trail and the stack of worlds. A world is a search node:
// PushWorld opens one, PopWorld rolls every cell back to its value at the
// time of the push.
type Env struct {
	trail  []trailEntry
	marks  []int // trail size at each push
	stamps []int // stamp of each open world
	stamp  int   // stamp of the current world
	next   int   // next unused stamp
}

// NewEnv creates an environment positioned at the root world.
func NewEnv() *Env {
	return &Env{
		trail:  make([]trailEntry, 0, 1024),
		marks:  make([]int, 0, 64),
		stamps: make([]int, 0, 64),
		next:   1,
	}
}

// PushWorld opens a new world.
func (e *Env) PushWorld() {
	e.marks = append(e.marks, len(e.trail))
	e.stamps = append(e.stamps, e.stamp)
	e.stamp = e.next
	e.next++
}

// PopWorld restores every cell modified since the last PushWorld.
// Popping the root world is a no-op.
func (e *Env) PopWorld() {
	n := len(e.marks)
	if n == 0 {
		return
	}
	to := e.marks[n-1]
	for i := len(e.trail) - 1; i >= to; i-- {
		t := e.trail[i]
		if t.intCell != nil {
			t.intCell.v = t.intVal
			t.intCell.stamp = t.stamp
		} else {
			t.wordCell.v = t.wordVal
			t.wordCell.stamp = t.stamp
		}
	}
	e.trail = e.trail[:to]
	e.stamp = e.stamps[n-1]
	e.marks = e.marks[:n-1]
	e.stamps = e.stamps[:n-1]
}

// WorldIndex returns the depth of the current world (0 at the root).
func (e *Env) WorldIndex() int { return len(e.marks) }

// TrailSize returns the number of saved cell values.
func (e *Env) TrailSize() int { return len(e.trail) }

// NewInt allocates a reversible int cell.
func (e *Env) NewInt(v int) *StateInt {
	return &StateInt{env: e, v: v, stamp: e.stamp}
}

// NewUint64 allocates a reversible machine word.
func (e *Env) NewUint64(v uint64) *StateUint64 {
	return &StateUint64{env: e, v: v, stamp: e.stamp}
}

// NewUint64s allocates one reversible word per element of words.
func (e *Env) NewUint64s(words []uint64) []StateUint64 {
	cells := make([]StateUint64, len(words))
	for i, w := range words {
		cells[i] = StateUint64{env: e, v: w, stamp: e.stamp}
	}
	return cells
}

// StateInt is an int whose writes are undone on backtrack.
type StateInt struct {
	env   *Env
	v     int
	stamp int
}

// Get returns the current value.
func (s *StateInt) Get() int { return s.v }

// Set writes v, saving the previous value once per world.
func (s *StateInt) Set(v int) {
	if v == s.v {
		return
	}
	if s.stamp != s.env.stamp {
		s.env.trail = append(s.env.trail, trailEntry{intCell: s, intVal: s.v, stamp: s.stamp})
		s.stamp = s.env.stamp
	}
	s.v = v
}

// Add adds delta and returns the new value.
func (s *StateInt) Add(delta int) int {
	s.Set(s.v + delta)
	return s.v
}

// StateUint64 is a 64-bit word whose writes are undone on backtrack.
type StateUint64 struct {
	env   *Env
	v     uint64
	stamp int
}

// Get returns the current word.
func (s *StateUint64) Get() uint64 { return s.v }

// Set writes v, saving the previous word once per world.
func (s *StateUint64) Set(v uint64) {
	if v == s.v {
		return
	}
	if s.stamp != s.env.stamp {
		s.env.trail = append(s.env.trail, trailEntry{wordCell: s, wordVal: s.v, stamp: s.stamp})
		s.stamp = s.env.stamp
	}
	s.v = v
}
