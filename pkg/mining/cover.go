package mining

import (
	"math/bits"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
	"github.com/bagouryy/choco-mining/pkg/sparse"
)

// CoverKind selects the bitset implementation behind a Cover.
type CoverKind int

const (
	// SparseCover skips words that became zero.
	SparseCover CoverKind = iota
	// DenseCover scans every word.
	DenseCover
)

func (k CoverKind) String() string {
	switch k {
	case SparseCover:
		return "sparse"
	case DenseCover:
		return "dense"
	}
	return "unknown"
}

// ParseCoverKind parses "sparse" or "dense" ("classic" is accepted for dense).
func ParseCoverKind(s string) (CoverKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sparse":
		return SparseCover, nil
	case "dense", "classic":
		return DenseCover, nil
	}
	return 0, errors.Errorf("unknown cover kind %q", s)
}

// Cover is a reversible set of transactions bound to a database: every
// item argument designates the cover of that item.
type Cover interface {
	// And intersects the cover with the cover of item.
	And(item int)
	// AndCount returns the size of the intersection with the cover of item.
	AndCount(item int) int
	// IsSubsetOf reports whether the cover is included in the cover of item.
	IsSubsetOf(item int) bool
	Cardinality() int
	IsEmpty() bool

	// ResetMask copies the cover into a scratch mask that is not restored
	// on backtrack.
	ResetMask()
	AndMask(item int)
	MaskCardinality() int
	MaskIsSubsetOf(item int) bool

	// Words returns a copy of the cover words.
	Words() []uint64
}

// NewCover returns a cover holding every transaction of db.
func NewCover(kind CoverKind, db *Database, env *cp.Env) Cover {
	return NewCoverFrom(kind, db, env, sparse.Full(db.NbTransactions()))
}

// NewCoverFrom returns a cover initialised with words.
func NewCoverFrom(kind CoverKind, db *Database, env *cp.Env, words []uint64) Cover {
	if kind == DenseCover {
		return newDenseCover(db, env, words)
	}
	return &sparseCover{db: db, set: sparse.NewReversibleFrom(env, words)}
}

// Transactions converts a cover to a bitset of transaction ids.
func Transactions(c Cover) *bitset.BitSet { return bitset.From(c.Words()) }

type sparseCover struct {
	db  *Database
	set *sparse.Reversible
}

func (c *sparseCover) And(item int)                 { c.set.And(c.db.words[item]) }
func (c *sparseCover) AndCount(item int) int        { return c.set.AndCount(c.db.words[item]) }
func (c *sparseCover) IsSubsetOf(item int) bool     { return c.set.IsSubsetOf(c.db.words[item]) }
func (c *sparseCover) Cardinality() int             { return c.set.Cardinality() }
func (c *sparseCover) IsEmpty() bool                { return c.set.IsEmpty() }
func (c *sparseCover) ResetMask()                   { c.set.ResetMask() }
func (c *sparseCover) AndMask(item int)             { c.set.AndMask(c.db.words[item]) }
func (c *sparseCover) MaskCardinality() int         { return c.set.MaskCardinality() }
func (c *sparseCover) MaskIsSubsetOf(item int) bool { return c.set.MaskIsSubsetOf(c.db.words[item]) }
func (c *sparseCover) Words() []uint64              { return c.set.Words() }

// denseCover keeps one reversible cell per word and a bitset mask.
type denseCover struct {
	db    *Database
	words []cp.StateUint64
	mask  *bitset.BitSet
}

func newDenseCover(db *Database, env *cp.Env, words []uint64) *denseCover {
	return &denseCover{db: db, words: env.NewUint64s(words)}
}

func (c *denseCover) And(item int) {
	m := c.db.words[item]
	for i := range c.words {
		c.words[i].Set(c.words[i].Get() & m[i])
	}
}

func (c *denseCover) AndCount(item int) int {
	m := c.db.words[item]
	n := 0
	for i := range c.words {
		n += bits.OnesCount64(c.words[i].Get() & m[i])
	}
	return n
}

func (c *denseCover) IsSubsetOf(item int) bool {
	m := c.db.words[item]
	for i := range c.words {
		if c.words[i].Get()&^m[i] != 0 {
			return false
		}
	}
	return true
}

func (c *denseCover) Cardinality() int {
	n := 0
	for i := range c.words {
		n += bits.OnesCount64(c.words[i].Get())
	}
	return n
}

func (c *denseCover) IsEmpty() bool {
	for i := range c.words {
		if c.words[i].Get() != 0 {
			return false
		}
	}
	return true
}

func (c *denseCover) ResetMask() { c.mask = bitset.From(c.Words()) }

func (c *denseCover) AndMask(item int) {
	c.mask.InPlaceIntersection(c.db.covers[item])
}

func (c *denseCover) MaskCardinality() int { return int(c.mask.Count()) }

func (c *denseCover) MaskIsSubsetOf(item int) bool {
	return c.db.covers[item].IsSuperSet(c.mask)
}

func (c *denseCover) Words() []uint64 {
	out := make([]uint64, len(c.words))
	for i := range c.words {
		out[i] = c.words[i].Get()
	}
	return out
}
