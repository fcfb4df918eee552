package mining

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// Consistency selects the filtering level of AdequateClosure.
type Consistency int

const (
	// WC applies the absent and free item rules only.
	WC Consistency = iota
	// DC also removes free items that would make an absent item constant.
	DC
)

func (c Consistency) String() string {
	if c == DC {
		return "DC"
	}
	return "WC"
}

// ParseConsistency parses "wc" or "dc".
func ParseConsistency(s string) (Consistency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wc":
		return WC, nil
	case "dc":
		return DC, nil
	}
	return WC, errors.Errorf("unknown consistency %q", s)
}

// AdequateClosure constrains the pattern x to be closed for a set of
// measures M: no item outside x can be added without changing a measure
// of M.
//
//   - an excluded item that keeps every measure constant makes the node fail
//   - a free item that keeps every measure constant is included
//   - with DC, a free item j is excluded when some excluded item i keeps
//     every measure constant once j is included
type AdequateClosure struct {
	db          *Database
	items       []*cp.IntVar
	measures    []Measure
	computers   []MeasureComputer
	part        *partition
	consistency Consistency
}

// NewAdequateClosure creates the closure propagator of measures.
// It returns an error when a measure has no closure computer.
func NewAdequateClosure(s *cp.Store, db *Database, measures []Measure, items []*cp.IntVar, c Consistency, kind CoverKind) (*AdequateClosure, error) {
	if err := checkItems(db, items); err != nil {
		return nil, errors.Wrap(err, "AdequateClosure")
	}
	if len(measures) == 0 {
		return nil, errors.New("AdequateClosure: no measure")
	}
	measures = Dedup(measures)
	computers := make([]MeasureComputer, len(measures))
	for i, m := range measures {
		mc, err := NewMeasureComputer(m, db, s.Env(), kind)
		if err != nil {
			return nil, errors.Wrap(err, "AdequateClosure")
		}
		computers[i] = mc
	}
	return &AdequateClosure{
		db:          db,
		items:       items,
		measures:    measures,
		computers:   computers,
		part:        newPartition(s.Env(), db.NbItems(), db.NbClass()),
		consistency: c,
	}, nil
}

// NewCoverClosure creates the closure propagator of frequency alone.
func NewCoverClosure(s *cp.Store, db *Database, items []*cp.IntVar, kind CoverKind) (*AdequateClosure, error) {
	return NewAdequateClosure(s, db, []Measure{MeasureFreq}, items, WC, kind)
}

// Variables implements cp.Propagator.
func (p *AdequateClosure) Variables() []*cp.IntVar { return p.items }

// Type implements cp.Propagator.
func (p *AdequateClosure) Type() string { return "AdequateClosure" + p.consistency.String() }

func (p *AdequateClosure) String() string {
	return fmt.Sprintf("%s(%s)", p.Type(), strings.Join(MeasureIDs(p.measures), ","))
}

// Measures returns the measures the pattern is closed for.
func (p *AdequateClosure) Measures() []Measure { return p.measures }

func (p *AdequateClosure) constant(item int) bool {
	for _, c := range p.computers {
		if !c.IsConstant(item) {
			return false
		}
	}
	return true
}

func (p *AdequateClosure) constantWith(item, other int) bool {
	for _, c := range p.computers {
		if !c.IsConstantWith(item, other) {
			return false
		}
	}
	return true
}

// Propagate implements cp.Propagator.
func (p *AdequateClosure) Propagate() error {
	part := p.part
	part.begin()
	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		x := p.items[idx]
		if !x.IsInstantiated() {
			continue
		}
		if x.Value() == 1 {
			for _, c := range p.computers {
				c.Compute(idx)
			}
		} else {
			part.addAbsent(idx)
		}
		part.removeFree(i)
	}
	for k := 0; k < part.nAbsent; k++ {
		if p.constant(part.absent[k]) {
			return cp.ErrInconsistent
		}
	}
	for i := part.nFree - 1; i >= part.first; i-- {
		idx := part.free[i]
		if p.constant(idx) {
			if err := p.items[idx].SetToTrue(p); err != nil {
				return err
			}
			part.removeFree(i)
		}
	}
	if p.consistency == DC {
		if err := p.filterDC(); err != nil {
			return err
		}
	}
	part.commit()
	return nil
}

func (p *AdequateClosure) filterDC() error {
	part := p.part
	for k := part.nAbsent - 1; k >= 0; k-- {
		idx := part.absent[k]
		for i := part.nFree - 1; i >= part.first; i-- {
			idx2 := part.free[i]
			if p.constantWith(idx, idx2) {
				if err := p.items[idx2].SetToFalse(p); err != nil {
					return err
				}
				part.removeFree(i)
				part.addAbsent(idx2)
			}
		}
	}
	return nil
}

// checkItems verifies that items has one boolean variable per item.
func checkItems(db *Database, items []*cp.IntVar) error {
	if db == nil {
		return errors.New("nil database")
	}
	if len(items) != db.NbItems() {
		return errors.Errorf("%d item variables for %d items", len(items), db.NbItems())
	}
	for i, x := range items {
		if x == nil {
			return errors.Errorf("nil variable for item %d", i)
		}
		if x.LB() < 0 || x.UB() > 1 {
			return errors.Errorf("variable %s is not boolean", x.Name())
		}
	}
	return nil
}
