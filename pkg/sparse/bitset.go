// Package sparse implements sparse bitsets over transaction ids.
//
// A sparse bitset keeps its non-zero words at the front of an index
// permutation: words[index[0..limit]] are the live words, every word past
// limit is known to be zero and is never scanned again. Intersections move
// words that become zero past the limit by swapping index entries.
//
// BitSet is the plain variant. Reversible stores its words and its limit in
// cp reversible cells, so a backtrack restores it exactly.
package sparse

import "math/bits"

// wordAt returns m[off], or 0 when m is too short.
func wordAt(m []uint64, off int) uint64 {
	if off < len(m) {
		return m[off]
	}
	return 0
}

// NbWords returns the number of 64-bit words needed for n bits.
func NbWords(n int) int { return (n + 63) / 64 }

// Full returns words with the n lowest bits set.
func Full(n int) []uint64 {
	words := make([]uint64, NbWords(n))
	for i := range words {
		words[i] = ^uint64(0)
	}
	if r := n % 64; r != 0 {
		words[len(words)-1] = (uint64(1) << uint(r)) - 1
	}
	return words
}

// BitSet is a non-reversible sparse bitset.
type BitSet struct {
	words []uint64
	index []int
	limit int
}

// New returns a bitset with the n lowest bits set.
func New(n int) *BitSet { return FromWords(Full(n)) }

// FromWords returns a bitset holding a copy of words.
func FromWords(words []uint64) *BitSet {
	b := &BitSet{
		words: make([]uint64, len(words)),
		index: make([]int, 0, len(words)),
	}
	copy(b.words, words)
	for i, w := range b.words {
		if w != 0 {
			b.index = append(b.index, i)
		}
	}
	b.limit = len(b.index) - 1
	for i, w := range b.words {
		if w == 0 {
			b.index = append(b.index, i)
		}
	}
	return b
}

// Reset copies the live content of another sparse bitset.
func (b *BitSet) Reset(words []uint64, index []int, limit int) {
	if cap(b.words) < len(words) {
		b.words = make([]uint64, len(words))
		b.index = make([]int, len(index))
	}
	b.words = b.words[:len(words)]
	b.index = b.index[:len(index)]
	copy(b.words, words)
	copy(b.index, index)
	b.limit = limit
}

// And intersects the bitset with m in place.
func (b *BitSet) And(m []uint64) {
	for i := b.limit; i >= 0; i-- {
		off := b.index[i]
		w := b.words[off] & wordAt(m, off)
		b.words[off] = w
		if w == 0 {
			b.index[i] = b.index[b.limit]
			b.index[b.limit] = off
			b.limit--
		}
	}
}

// AndCount returns |b ∩ m| without modifying b.
func (b *BitSet) AndCount(m []uint64) int {
	n := 0
	for i := b.limit; i >= 0; i-- {
		off := b.index[i]
		n += bits.OnesCount64(b.words[off] & wordAt(m, off))
	}
	return n
}

// IsSubsetOf reports whether b ⊆ m.
func (b *BitSet) IsSubsetOf(m []uint64) bool {
	for i := b.limit; i >= 0; i-- {
		off := b.index[i]
		if b.words[off]&^wordAt(m, off) != 0 {
			return false
		}
	}
	return true
}

// Cardinality returns the number of set bits.
func (b *BitSet) Cardinality() int {
	n := 0
	for i := b.limit; i >= 0; i-- {
		n += bits.OnesCount64(b.words[b.index[i]])
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (b *BitSet) IsEmpty() bool { return b.limit < 0 }

// Words returns a copy of the words in natural order.
func (b *BitSet) Words() []uint64 {
	out := make([]uint64, len(b.words))
	for i := b.limit; i >= 0; i-- {
		off := b.index[i]
		out[off] = b.words[off]
	}
	return out
}
