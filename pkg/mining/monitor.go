package mining

import (
	"github.com/bagouryy/choco-mining/pkg/cp"
)

// PatternMonitor records a Pattern at every solution of a search. It
// implements cp.SolutionMonitor.
type PatternMonitor struct {
	db           *Database
	items        []*cp.IntVar
	measures     []*cp.IntVar
	archive      *Archive
	transactions bool
}

// NewPatternMonitor creates a monitor storing into archive the pattern of
// items and the values of measures, in order.
func NewPatternMonitor(db *Database, items, measures []*cp.IntVar, archive *Archive) *PatternMonitor {
	return &PatternMonitor{db: db, items: items, measures: measures, archive: archive}
}

// SaveTransactions makes the monitor record the cover of each pattern.
func (m *PatternMonitor) SaveTransactions(on bool) { m.transactions = on }

// Archive returns the archive the monitor fills.
func (m *PatternMonitor) Archive() *Archive { return m.archive }

// OnSolution implements cp.SolutionMonitor.
func (m *PatternMonitor) OnSolution() error {
	var idx, labels []int
	for i, x := range m.items {
		if x.IsInstantiatedTo(1) {
			idx = append(idx, i)
			labels = append(labels, m.db.Label(i))
		}
	}
	p := Pattern{Items: labels, Measures: make([]int, len(m.measures))}
	for k, v := range m.measures {
		p.Measures[k] = v.Value()
	}
	if m.transactions {
		p.Transactions = m.db.CoverOf(idx)
	}
	m.archive.Add(p)
	return nil
}
