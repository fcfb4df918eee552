package mining

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
	"github.com/bagouryy/choco-mining/pkg/sparse"
)

// itemState splits the non class items by the state of their variable.
type itemState struct {
	present, absent, free []int
}

func scanItems(db *Database, items []*cp.IntVar) itemState {
	var st itemState
	for i := db.NbClass(); i < db.NbItems(); i++ {
		switch x := items[i]; {
		case !x.IsInstantiated():
			st.free = append(st.free, i)
		case x.Value() == 1:
			st.present = append(st.present, i)
		default:
			st.absent = append(st.absent, i)
		}
	}
	return st
}

// coverOf returns the intersection of the covers of the given item lists,
// skipping item skip.
func coverOf(db *Database, skip int, lists ...[]int) *sparse.BitSet {
	c := sparse.New(db.NbTransactions())
	for _, l := range lists {
		for _, i := range l {
			if i != skip {
				c.And(db.words[i])
			}
		}
	}
	return c
}

func checkThreshold(name string, db *Database, s int, items []*cp.IntVar) error {
	if err := checkItems(db, items); err != nil {
		return errors.Wrap(err, name)
	}
	if s < 0 {
		return errors.Errorf("%s: negative threshold %d", name, s)
	}
	return nil
}

// FrequentSubs requires every subset x \ {i} of the pattern to have a
// frequency of at least s. Together with freq(x) < s it describes the
// minimal infrequent itemsets.
type FrequentSubs struct {
	db    *Database
	s     int
	items []*cp.IntVar
}

// NewFrequentSubs creates a FrequentSubs propagator with threshold s.
func NewFrequentSubs(db *Database, s int, items []*cp.IntVar) (*FrequentSubs, error) {
	if err := checkThreshold("FrequentSubs", db, s, items); err != nil {
		return nil, err
	}
	return &FrequentSubs{db: db, s: s, items: items}, nil
}

// Variables implements cp.Propagator.
func (p *FrequentSubs) Variables() []*cp.IntVar { return p.items }

// Type implements cp.Propagator.
func (p *FrequentSubs) Type() string { return "FrequentSubs" }

func (p *FrequentSubs) String() string { return fmt.Sprintf("FrequentSubs(s=%d)", p.s) }

// Propagate implements cp.Propagator.
func (p *FrequentSubs) Propagate() error {
	st := scanItems(p.db, p.items)
	cover := coverOf(p.db, -1, st.present)
	subs := make([]*sparse.BitSet, len(st.present))
	for k, i := range st.present {
		subs[k] = coverOf(p.db, i, st.present)
		if subs[k].Cardinality() < p.s {
			return cp.ErrInconsistent
		}
	}
	if cover.Cardinality() < p.s {
		for _, i := range st.free {
			if err := p.items[i].SetToFalse(p); err != nil {
				return err
			}
		}
		return nil
	}
	for _, i := range st.free {
		words := p.db.words[i]
		if cover.AndCount(words) >= p.s {
			continue
		}
		for _, sub := range subs {
			if sub.AndCount(words) < p.s {
				if err := p.items[i].SetToFalse(p); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// InfrequentSupers requires every superset x ∪ {j} of the pattern to have
// a frequency lower than s. Together with freq(x) >= s it describes the
// maximal frequent itemsets.
type InfrequentSupers struct {
	db    *Database
	s     int
	items []*cp.IntVar
}

// NewInfrequentSupers creates an InfrequentSupers propagator with
// threshold s.
func NewInfrequentSupers(db *Database, s int, items []*cp.IntVar) (*InfrequentSupers, error) {
	if err := checkThreshold("InfrequentSupers", db, s, items); err != nil {
		return nil, err
	}
	return &InfrequentSupers{db: db, s: s, items: items}, nil
}

// Variables implements cp.Propagator.
func (p *InfrequentSupers) Variables() []*cp.IntVar { return p.items }

// Type implements cp.Propagator.
func (p *InfrequentSupers) Type() string { return "InfrequentSupers" }

func (p *InfrequentSupers) String() string { return fmt.Sprintf("InfrequentSupers(s=%d)", p.s) }

// Propagate implements cp.Propagator.
func (p *InfrequentSupers) Propagate() error {
	st := scanItems(p.db, p.items)
	// cover of the largest pattern still reachable
	cover := coverOf(p.db, -1, st.present, st.free)
	if cover.Cardinality() >= p.s {
		for _, j := range st.absent {
			if cover.AndCount(p.db.words[j]) >= p.s {
				return cp.ErrInconsistent
			}
		}
	}
	for _, i := range st.free {
		// cover of the largest reachable pattern without i
		c := coverOf(p.db, i, st.present, st.free)
		if c.Cardinality() < p.s {
			continue
		}
		if c.AndCount(p.db.words[i]) >= p.s {
			if err := p.items[i].SetToTrue(p); err != nil {
				return err
			}
			continue
		}
		for _, j := range st.absent {
			if c.AndCount(p.db.words[j]) >= p.s {
				if err := p.items[i].SetToTrue(p); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}
