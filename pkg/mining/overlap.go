package mining

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// Overlap keeps the patterns of a search diverse: a pattern is accepted only
// if the Jaccard index between its cover and the cover of every pattern of
// the history is at most jmax.
//
// Overlap is both a propagator and a solution monitor. It must be posted
// and registered as a monitor on the same store:
//
//	o, _ := mining.NewOverlap(db, items, 0.2, 10)
//	_ = s.Post(o)
//	s.AddMonitor(o)
//
// During search it prunes with a lower bound of the Jaccard index that holds
// for every pattern of frequency at least theta extending the current one.
type Overlap struct {
	db       *Database
	items    []*cp.IntVar
	jmax     float64
	theta    int
	itemsets [][]int
	covers   []*bitset.BitSet

	// scratch covers reused by Propagate
	all, cur, ext *bitset.BitSet
}

// NewOverlap creates an Overlap constraint with an empty history.
func NewOverlap(db *Database, items []*cp.IntVar, jmax float64, theta int) (*Overlap, error) {
	if err := checkItems(db, items); err != nil {
		return nil, errors.Wrap(err, "Overlap")
	}
	if jmax < 0 || jmax > 1 {
		return nil, errors.Errorf("Overlap: jmax %v not in [0,1]", jmax)
	}
	if theta < 0 {
		return nil, errors.Errorf("Overlap: negative theta %d", theta)
	}
	n := uint(db.NbTransactions())
	all := bitset.New(n)
	all.FlipRange(0, n)
	return &Overlap{
		db:    db,
		items: items,
		jmax:  jmax,
		theta: theta,
		all:   all,
		cur:   bitset.New(n),
		ext:   bitset.New(n),
	}, nil
}

// Variables implements cp.Propagator.
func (o *Overlap) Variables() []*cp.IntVar { return o.items }

// Type implements cp.Propagator.
func (o *Overlap) Type() string { return "Overlap" }

func (o *Overlap) String() string {
	return fmt.Sprintf("Overlap(jmax=%g, theta=%d, history=%d)", o.jmax, o.theta, len(o.covers))
}

// PropagateOnNode implements cp.NodePropagator: the history grows outside
// the fixpoint.
func (o *Overlap) PropagateOnNode() bool { return true }

// Itemsets returns the accepted itemsets, as item indices.
func (o *Overlap) Itemsets() [][]int { return o.itemsets }

// Covers returns the covers of the accepted itemsets.
func (o *Overlap) Covers() []*bitset.BitSet { return o.covers }

// lowerBound returns a lower bound of the Jaccard index between h and the
// cover of any extension of x with frequency at least theta.
func (o *Overlap) lowerBound(x, h *bitset.BitSet) float64 {
	nx := int(x.Count())
	proper := nx - int(x.IntersectionCardinality(h))
	den := nx + int(h.Count()) + proper - o.theta
	if den <= 0 {
		return 0
	}
	return float64(o.theta-proper) / float64(den)
}

func (o *Overlap) diverse(x *bitset.BitSet) bool {
	for _, h := range o.covers {
		if o.lowerBound(x, h) > o.jmax {
			return false
		}
	}
	return true
}

// Propagate implements cp.Propagator.
func (o *Overlap) Propagate() error {
	if len(o.covers) == 0 {
		return nil
	}
	o.fillCover(o.cur)
	if !o.diverse(o.cur) {
		return cp.ErrInconsistent
	}
	for i, v := range o.items {
		if v.IsInstantiated() {
			continue
		}
		o.cur.Copy(o.ext)
		o.ext.InPlaceIntersection(o.db.covers[i])
		if !o.diverse(o.ext) {
			if err := v.SetToFalse(o); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillCover stores the cover of the included items in dst.
func (o *Overlap) fillCover(dst *bitset.BitSet) {
	o.all.Copy(dst)
	for i, v := range o.items {
		if v.IsInstantiatedTo(1) {
			dst.InPlaceIntersection(o.db.covers[i])
		}
	}
}

// OnSolution implements cp.SolutionMonitor: the solution joins the history
// when its exact Jaccard index with every pattern of the history is at
// most jmax.
func (o *Overlap) OnSolution() error {
	var itemset []int
	for i, v := range o.items {
		if v.IsInstantiatedTo(1) {
			itemset = append(itemset, i)
		}
	}
	c := bitset.New(uint(o.db.NbTransactions()))
	o.fillCover(c)
	for _, h := range o.covers {
		if Jaccard(c, h) > o.jmax {
			return nil
		}
	}
	o.itemsets = append(o.itemsets, itemset)
	o.covers = append(o.covers, c)
	return nil
}

// Jaccard returns |a ∩ b| / |a ∪ b|, 0 when both sets are empty.
func Jaccard(a, b *bitset.BitSet) float64 {
	union := a.UnionCardinality(b)
	if union == 0 {
		return 0
	}
	return float64(a.IntersectionCardinality(b)) / float64(union)
}
