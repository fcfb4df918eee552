package mining

import (
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
	"github.com/bagouryy/choco-mining/pkg/sparse"
)

// Generator constrains the pattern x to be a generator: no proper subset
// of x has the same frequency. Equivalently, freq(x \ {i}) > freq(x) for
// every item i of x.
//
// The propagator only reacts to included items.
type Generator struct {
	db    *Database
	items []*cp.IntVar
	cover Cover
	part  *partition
	subs  []*sparse.BitSet
}

// NewGenerator creates a Generator propagator.
func NewGenerator(s *cp.Store, db *Database, items []*cp.IntVar, kind CoverKind) (*Generator, error) {
	if err := checkItems(db, items); err != nil {
		return nil, errors.Wrap(err, "Generator")
	}
	return &Generator{
		db:    db,
		items: items,
		cover: NewCover(kind, db, s.Env()),
		part:  newPartition(s.Env(), db.NbItems(), db.NbClass()),
	}, nil
}

// Variables implements cp.Propagator.
func (p *Generator) Variables() []*cp.IntVar { return p.items }

// Type implements cp.Propagator.
func (p *Generator) Type() string { return "Generator" }

func (p *Generator) String() string { return "Generator" }

// EventMask implements cp.EventMasker.
func (p *Generator) EventMask() cp.Event { return cp.EventIncLow }

// Cover returns the cover of the included items at the current node.
func (p *Generator) Cover() Cover { return p.cover }

// Propagate implements cp.Propagator.
func (p *Generator) Propagate() error {
	part := p.part
	part.begin()
	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		x := p.items[idx]
		if !x.IsInstantiated() {
			continue
		}
		part.removeFree(i)
		if x.Value() == 1 {
			part.addPresent(idx)
			p.cover.And(idx)
		}
	}

	// subs[j] is the cover of x+ without its j-th item.
	size := p.cover.Cardinality()
	p.subs = p.subs[:0]
	for j := 0; j < part.nPresent; j++ {
		sub := sparse.New(p.db.NbTransactions())
		for k := 0; k < part.nPresent; k++ {
			if k != j {
				sub.And(p.db.words[part.present[k]])
			}
		}
		if sub.Cardinality() == size {
			return cp.ErrInconsistent
		}
		p.subs = append(p.subs, sub)
	}

	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		if p.breaksGenerator(idx, size) {
			part.removeFree(i)
			if err := p.items[idx].SetToFalse(p); err != nil {
				return err
			}
		}
	}
	part.commit()
	return nil
}

// breaksGenerator reports whether x+ ∪ {item} has a proper subset with the
// same frequency.
func (p *Generator) breaksGenerator(item, size int) bool {
	n := p.cover.AndCount(item)
	if n == size {
		return true
	}
	words := p.db.words[item]
	for _, sub := range p.subs {
		if sub.AndCount(words) == n {
			return true
		}
	}
	return false
}
