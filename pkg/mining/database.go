// Package mining expresses itemset mining tasks as constraint models.
//
// A Database holds the vertical representation of a transactional dataset:
// one cover (bitset of transaction ids) per item. Every item gets a boolean
// variable in a cp.Store and the propagators of this package prune the
// search using the covers: frequency bounds, closure and generator
// conditions, frequent borders, diversity and Pareto dominance.
package mining

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Database is an immutable vertical transactional database. It is safe to
// share between concurrent searches.
type Database struct {
	items          []int
	values         [][]int
	nbClass        int
	covers         []*bitset.BitSet
	words          [][]uint64
	nbTransactions int
	itemIndex      map[int]int
}

// NewDatabase validates and builds a database.
//
// items holds the label of each item, covers[i] the transactions containing
// item i, values[k][i] the value of item i for attribute k. The first
// nbClass items are class labels and never take part in a pattern.
func NewDatabase(items []int, values [][]int, nbClass int, covers []*bitset.BitSet, nbTransactions int) (*Database, error) {
	if len(covers) != len(items) {
		return nil, errors.Errorf("database: %d covers for %d items", len(covers), len(items))
	}
	if nbTransactions < 0 {
		return nil, errors.Errorf("database: negative number of transactions %d", nbTransactions)
	}
	if nbClass < 0 || nbClass > len(items) {
		return nil, errors.Errorf("database: %d classes for %d items", nbClass, len(items))
	}
	for k, row := range values {
		if len(row) != len(items) {
			return nil, errors.Errorf("database: attribute %d has %d values for %d items", k, len(row), len(items))
		}
	}
	index := make(map[int]int, len(items))
	for i, label := range items {
		if _, dup := index[label]; dup {
			return nil, errors.Errorf("database: duplicate item %d", label)
		}
		index[label] = i
	}
	db := &Database{
		items:          items,
		values:         values,
		nbClass:        nbClass,
		covers:         covers,
		words:          make([][]uint64, len(covers)),
		nbTransactions: nbTransactions,
		itemIndex:      index,
	}
	nbWords := (nbTransactions + 63) / 64
	for i, c := range covers {
		if c == nil {
			return nil, errors.Errorf("database: nil cover for item %d", items[i])
		}
		w := make([]uint64, nbWords)
		for t, ok := c.NextSet(0); ok; t, ok = c.NextSet(t + 1) {
			if int(t) >= nbTransactions {
				return nil, errors.Errorf("database: item %d covers transaction %d out of %d", items[i], t, nbTransactions)
			}
			w[t/64] |= uint64(1) << (t % 64)
		}
		db.words[i] = w
	}
	return db, nil
}

// FromTransactions builds a database from horizontal transactions, with the
// same indexing rules as ReadDat.
func FromTransactions(transactions [][]int, opts ReadOptions) (*Database, error) {
	set := make(map[int]struct{})
	for _, tr := range transactions {
		for _, item := range tr {
			set[item] = struct{}{}
		}
	}
	labels := make([]int, 0, len(set))
	for item := range set {
		labels = append(labels, item)
	}
	sort.Ints(labels)
	index := make(map[int]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	covers := make([]*bitset.BitSet, len(labels))
	for i := range covers {
		covers[i] = bitset.New(uint(len(transactions)))
	}
	maxClass := 1
	for t, tr := range transactions {
		if len(tr) > 0 {
			if c := index[tr[0]] + 1; c > maxClass {
				maxClass = c
			}
		}
		for _, item := range tr {
			covers[index[item]].Set(uint(t))
		}
	}
	nbClass := maxClass
	if opts.NoClasses {
		nbClass = 0
	}
	if nbClass > len(labels) {
		nbClass = len(labels)
	}
	return NewDatabase(labels, opts.Values, nbClass, covers, len(transactions))
}

// NbItems returns the number of items, class items included.
func (db *Database) NbItems() int { return len(db.items) }

// NbTransactions returns the number of transactions.
func (db *Database) NbTransactions() int { return db.nbTransactions }

// NbClass returns the number of class items.
func (db *Database) NbClass() int { return db.nbClass }

// Items returns the item labels indexed by item.
func (db *Database) Items() []int { return db.items }

// Label returns the label of item i.
func (db *Database) Label(i int) int { return db.items[i] }

// IndexOf returns the item index of a label.
func (db *Database) IndexOf(label int) (int, bool) {
	i, ok := db.itemIndex[label]
	return i, ok
}

// Values returns the attribute values, one row per attribute.
func (db *Database) Values() [][]int { return db.values }

// NbValues returns the number of attributes.
func (db *Database) NbValues() int { return len(db.values) }

// Cover returns the cover of item i. It must not be modified.
func (db *Database) Cover(i int) *bitset.BitSet { return db.covers[i] }

// Words returns the cover of item i as 64-bit words. It must not be modified.
func (db *Database) Words(i int) []uint64 { return db.words[i] }

// ItemFrequency returns the frequency of every item.
func (db *Database) ItemFrequency() []int {
	freq := make([]int, len(db.covers))
	for i, c := range db.covers {
		freq[i] = int(c.Count())
	}
	return freq
}

// ClassCount returns the number of transactions of the first class and the
// number of the others.
func (db *Database) ClassCount() [2]int {
	if len(db.covers) == 0 {
		return [2]int{0, db.nbTransactions}
	}
	d1 := int(db.covers[0].Count())
	return [2]int{d1, db.nbTransactions - d1}
}

// Density returns the proportion of set cells in the item x transaction matrix.
func (db *Database) Density() float64 {
	if len(db.items) == 0 || db.nbTransactions == 0 {
		return 0
	}
	total := 0
	for _, c := range db.covers {
		total += int(c.Count())
	}
	return float64(total) / float64(len(db.items)*db.nbTransactions)
}

// CoverOf returns the transactions containing every item of itemset.
func (db *Database) CoverOf(itemset []int) *bitset.BitSet {
	cover := bitset.New(uint(db.nbTransactions))
	for t := 0; t < db.nbTransactions; t++ {
		cover.Set(uint(t))
	}
	for _, i := range itemset {
		cover.InPlaceIntersection(db.covers[i])
	}
	return cover
}

// Frequency returns the number of transactions containing itemset.
func (db *Database) Frequency(itemset []int) int {
	return int(db.CoverOf(itemset).Count())
}
