package mining

import "github.com/bagouryy/choco-mining/pkg/cp"

// partition splits item indices into zones delimited by reversible limits:
//
//	free[first:nFree]   items whose variable may still be unassigned
//	absent[:nAbsent]    items excluded since the propagator started
//	present[:nPresent]  items included since the propagator started
//
// Items below first (class items) are never scanned. A propagation call
// loads the limits with begin, moves items out of the free zone while
// scanning it from the end, and stores the limits with commit. Free items
// are removed by swapping them with the last free item, so a descending
// scan visits every item exactly once.
type partition struct {
	free    []int
	first   int
	absent  []int
	present []int

	lastFree    *cp.StateInt
	lastAbsent  *cp.StateInt
	lastPresent *cp.StateInt

	nFree, nAbsent, nPresent int
}

// newPartition creates a partition whose free zone holds items
// [first, nbItems).
func newPartition(env *cp.Env, nbItems, first int) *partition {
	if first > nbItems {
		first = nbItems
	}
	p := &partition{
		free:        make([]int, nbItems),
		first:       first,
		absent:      make([]int, nbItems),
		present:     make([]int, nbItems),
		lastFree:    env.NewInt(nbItems),
		lastAbsent:  env.NewInt(0),
		lastPresent: env.NewInt(0),
	}
	for i := range p.free {
		p.free[i] = i
	}
	return p
}

func (p *partition) begin() {
	p.nFree = p.lastFree.Get()
	p.nAbsent = p.lastAbsent.Get()
	p.nPresent = p.lastPresent.Get()
}

func (p *partition) commit() {
	p.lastFree.Set(p.nFree)
	p.lastAbsent.Set(p.nAbsent)
	p.lastPresent.Set(p.nPresent)
}

// removeFree takes the item at position pos out of the free zone.
func (p *partition) removeFree(pos int) {
	p.nFree--
	p.free[pos], p.free[p.nFree] = p.free[p.nFree], p.free[pos]
}

func (p *partition) addAbsent(item int) {
	p.absent[p.nAbsent] = item
	p.nAbsent++
}

func (p *partition) addPresent(item int) {
	p.present[p.nPresent] = item
	p.nPresent++
}

// freeItems returns the current free zone.
func (p *partition) freeItems() []int { return p.free[p.first:p.nFree] }
