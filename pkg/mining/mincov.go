package mining

import (
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// MinCov branches on the free item whose inclusion gives the smallest
// cover. With cp.ValueMin the item is excluded first, so the search
// enumerates the most frequent patterns early.
type MinCov struct {
	items []*cp.IntVar
	cover Cover
}

// NewMinCov creates a MinCov selector with its own reversible cover.
func NewMinCov(s *cp.Store, db *Database, items []*cp.IntVar, kind CoverKind) (*MinCov, error) {
	if err := checkItems(db, items); err != nil {
		return nil, errors.Wrap(err, "MinCov")
	}
	return &MinCov{items: items, cover: NewCover(kind, db, s.Env())}, nil
}

// SelectVariable implements cp.VariableSelector. It returns nil when every
// item is assigned.
func (h *MinCov) SelectVariable() *cp.IntVar {
	for i, x := range h.items {
		if x.IsInstantiatedTo(1) {
			h.cover.And(i)
		}
	}
	best, bestCov := -1, h.cover.Cardinality()+1
	for i, x := range h.items {
		if x.IsInstantiated() {
			continue
		}
		if n := h.cover.AndCount(i); n < bestCov {
			best, bestCov = i, n
		}
	}
	if best < 0 {
		return nil
	}
	return h.items[best]
}
