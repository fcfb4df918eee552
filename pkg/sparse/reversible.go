package sparse

import (
	"math/bits"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// Reversible is a sparse bitset whose words and live limit are restored on
// backtrack. The index permutation itself is not trailed: swaps only happen
// inside the live zone, so a restored limit always delimits the same set of
// words.
//
// The mask is a scratch copy used to compute a bound within a single
// propagation call. It is rebuilt by ResetMask and never restored.
type Reversible struct {
	words []cp.StateUint64
	index []int
	limit *cp.StateInt
	mask  *BitSet
	buf   []uint64
}

// NewReversible returns a reversible bitset with the n lowest bits set.
func NewReversible(env *cp.Env, n int) *Reversible {
	return NewReversibleFrom(env, Full(n))
}

// NewReversibleFrom returns a reversible bitset holding a copy of words.
func NewReversibleFrom(env *cp.Env, words []uint64) *Reversible {
	init := FromWords(words)
	r := &Reversible{
		words: env.NewUint64s(init.words),
		index: init.index,
		limit: env.NewInt(init.limit),
		mask:  &BitSet{},
		buf:   make([]uint64, len(words)),
	}
	return r
}

// Limit returns the position of the last live word in the index.
func (r *Reversible) Limit() int { return r.limit.Get() }

// And intersects the bitset with m.
func (r *Reversible) And(m []uint64) {
	limit := r.limit.Get()
	for i := limit; i >= 0; i-- {
		off := r.index[i]
		w := r.words[off].Get() & wordAt(m, off)
		r.words[off].Set(w)
		if w == 0 {
			r.index[i] = r.index[limit]
			r.index[limit] = off
			limit--
		}
	}
	r.limit.Set(limit)
}

// AndCount returns |r ∩ m|.
func (r *Reversible) AndCount(m []uint64) int {
	n := 0
	for i := r.limit.Get(); i >= 0; i-- {
		off := r.index[i]
		n += bits.OnesCount64(r.words[off].Get() & wordAt(m, off))
	}
	return n
}

// IsSubsetOf reports whether r ⊆ m.
func (r *Reversible) IsSubsetOf(m []uint64) bool {
	for i := r.limit.Get(); i >= 0; i-- {
		off := r.index[i]
		if r.words[off].Get()&^wordAt(m, off) != 0 {
			return false
		}
	}
	return true
}

// Cardinality returns the number of set bits.
func (r *Reversible) Cardinality() int {
	n := 0
	for i := r.limit.Get(); i >= 0; i-- {
		n += bits.OnesCount64(r.words[r.index[i]].Get())
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (r *Reversible) IsEmpty() bool { return r.limit.Get() < 0 }

// Words returns a copy of the words in natural order.
func (r *Reversible) Words() []uint64 {
	out := make([]uint64, len(r.words))
	for i := r.limit.Get(); i >= 0; i-- {
		off := r.index[i]
		out[off] = r.words[off].Get()
	}
	return out
}

// ResetMask makes the mask equal to the current content.
func (r *Reversible) ResetMask() {
	for i := range r.words {
		r.buf[i] = r.words[i].Get()
	}
	r.mask.Reset(r.buf, r.index, r.limit.Get())
}

// AndMask intersects the mask with m.
func (r *Reversible) AndMask(m []uint64) { r.mask.And(m) }

// MaskCardinality returns the number of bits set in the mask.
func (r *Reversible) MaskCardinality() int { return r.mask.Cardinality() }

// MaskIsSubsetOf reports whether mask ⊆ m.
func (r *Reversible) MaskIsSubsetOf(m []uint64) bool { return r.mask.IsSubsetOf(m) }
