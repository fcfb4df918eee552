package mining

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// CoverSize links the frequency variable freq to the cover of the included
// items: freq = |cover(x+)|.
//
// Each call bounds freq by the cover assuming every free item is included
// (lower bound) and the cover of x+ (upper bound), excludes free items that
// would bring the cover below freq.LB, and once |cover(x+)| equals freq.LB
// excludes every free item that would shrink the cover.
type CoverSize struct {
	db    *Database
	freq  *cp.IntVar
	items []*cp.IntVar
	cover Cover
	part  *partition
	class bool
}

// CoverOption configures a cover based propagator.
type CoverOption func(*coverConfig)

type coverConfig struct {
	kind  CoverKind
	class bool
}

// WithCoverKind selects the bitset implementation.
func WithCoverKind(kind CoverKind) CoverOption {
	return func(c *coverConfig) { c.kind = kind }
}

// WithClassCover restricts the cover to the transactions of class item 0,
// so that freq counts the first class only.
func WithClassCover() CoverOption {
	return func(c *coverConfig) { c.class = true }
}

// NewCoverSize creates a CoverSize propagator.
func NewCoverSize(s *cp.Store, db *Database, freq *cp.IntVar, items []*cp.IntVar, opts ...CoverOption) (*CoverSize, error) {
	if err := checkItems(db, items); err != nil {
		return nil, errors.Wrap(err, "CoverSize")
	}
	if freq == nil {
		return nil, errors.New("CoverSize: nil frequency variable")
	}
	cfg := &coverConfig{}
	for _, o := range opts {
		o(cfg)
	}
	var cover Cover
	if cfg.class {
		if db.NbClass() == 0 {
			return nil, errors.New("CoverSize: class cover needs a database with classes")
		}
		cover = NewCoverFrom(cfg.kind, db, s.Env(), db.Words(0))
	} else {
		cover = NewCover(cfg.kind, db, s.Env())
	}
	return &CoverSize{
		db:    db,
		freq:  freq,
		items: items,
		cover: cover,
		part:  newPartition(s.Env(), db.NbItems(), db.NbClass()),
		class: cfg.class,
	}, nil
}

// Variables implements cp.Propagator.
func (p *CoverSize) Variables() []*cp.IntVar {
	return append(append([]*cp.IntVar{}, p.items...), p.freq)
}

// Type implements cp.Propagator.
func (p *CoverSize) Type() string { return "CoverSize" }

func (p *CoverSize) String() string { return fmt.Sprintf("CoverSize(%s)", p.freq) }

// Cover returns the cover of the included items at the current node.
func (p *CoverSize) Cover() Cover { return p.cover }

// Propagate implements cp.Propagator.
func (p *CoverSize) Propagate() error {
	part := p.part
	part.begin()
	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		x := p.items[idx]
		if !x.IsInstantiated() {
			continue
		}
		if x.Value() == 1 {
			p.cover.And(idx)
		}
		part.removeFree(i)
	}
	lb := p.freq.LB()
	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		if p.cover.AndCount(idx) < lb {
			if err := p.items[idx].SetToFalse(p); err != nil {
				return err
			}
			part.removeFree(i)
		}
	}
	p.cover.ResetMask()
	for _, idx := range part.freeItems() {
		p.cover.AndMask(idx)
	}
	card := p.cover.Cardinality()
	if err := p.freq.UpdateBounds(p.cover.MaskCardinality(), card, p); err != nil {
		return err
	}
	if card == p.freq.LB() {
		for i := part.nFree - 1; i >= part.first; i-- {
			idx := part.free[i]
			if !p.cover.IsSubsetOf(idx) {
				if err := p.items[idx].SetToFalse(p); err != nil {
					return err
				}
				part.removeFree(i)
			}
		}
	}
	part.commit()
	return nil
}
