package cp

// monitor.go: search statistics and solution callbacks

import (
	"fmt"
	"sync"
	"time"
)

// SolutionMonitor is notified once per feasible leaf of the search tree,
// outside the propagation fixpoint. Returning ErrStopSearch ends the search
// normally; any other error aborts it.
type SolutionMonitor interface {
	OnSolution() error
}

// OnSolutionFunc adapts a function to SolutionMonitor.
type OnSolutionFunc func() error

// OnSolution calls f.
func (f OnSolutionFunc) OnSolution() error { return f() }

// SolverStats holds statistics about a search.
type SolverStats struct {
	NodesExplored  int           // decisions taken
	Backtracks     int           // refuted decisions
	Fails          int           // contradictions met
	SolutionsFound int           // feasible leaves
	SearchTime     time.Duration // wall time of Solve
	MaxDepth       int           // deepest decision level

	PropagationCount int           // fixpoint runs
	PropagationTime  time.Duration // time spent in fixpoint runs
	ConstraintsAdded int           // posted propagators

	PeakTrailSize int // largest trail observed after a fixpoint
}

// SolverMonitor collects SolverStats. It is safe to read while a search runs.
type SolverMonitor struct {
	mu        sync.Mutex
	stats     SolverStats
	startTime time.Time
	propStart time.Time
}

// NewSolverMonitor creates a monitor with zeroed statistics.
func NewSolverMonitor() *SolverMonitor {
	return &SolverMonitor{startTime: time.Now()}
}

// GetStats returns a copy of the current statistics.
func (m *SolverMonitor) GetStats() *SolverStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats
	return &stats
}

// StartSearch resets the search clock.
func (m *SolverMonitor) StartSearch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
}

// FinishSearch records the elapsed search time.
func (m *SolverMonitor) FinishSearch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SearchTime = time.Since(m.startTime)
}

// StartPropagation marks the beginning of a fixpoint run.
func (m *SolverMonitor) StartPropagation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.propStart = time.Now()
}

// EndPropagation marks the end of a fixpoint run.
func (m *SolverMonitor) EndPropagation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.propStart.IsZero() {
		m.stats.PropagationTime += time.Since(m.propStart)
		m.stats.PropagationCount++
		m.propStart = time.Time{}
	}
}

// RecordNode records a decision.
func (m *SolverMonitor) RecordNode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.NodesExplored++
}

// RecordBacktrack records a refuted decision.
func (m *SolverMonitor) RecordBacktrack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Backtracks++
}

// RecordFail records a contradiction.
func (m *SolverMonitor) RecordFail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Fails++
}

// RecordSolution records a feasible leaf.
func (m *SolverMonitor) RecordSolution() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SolutionsFound++
}

// RecordDepth records the current decision depth.
func (m *SolverMonitor) RecordDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if depth > m.stats.MaxDepth {
		m.stats.MaxDepth = depth
	}
}

// RecordConstraint records a posted propagator.
func (m *SolverMonitor) RecordConstraint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.ConstraintsAdded++
}

// RecordTrailSize records the current trail size.
func (m *SolverMonitor) RecordTrailSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if size > m.stats.PeakTrailSize {
		m.stats.PeakTrailSize = size
	}
}

// String returns a formatted representation of the statistics.
func (s *SolverStats) String() string {
	return fmt.Sprintf(
		"Solver Statistics:\n"+
			"  Search: %d nodes, %d backtracks, %d fails, %d solutions, %v time, max depth %d\n"+
			"  Propagation: %d ops, %v time, %d constraints\n"+
			"  Memory: peak trail %d",
		s.NodesExplored, s.Backtracks, s.Fails, s.SolutionsFound, s.SearchTime, s.MaxDepth,
		s.PropagationCount, s.PropagationTime, s.ConstraintsAdded,
		s.PeakTrailSize,
	)
}
