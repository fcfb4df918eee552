package mining

import (
	"context"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// toyDB is the border dataset A=1 ... E=5 without classes.
func toyDB(t *testing.T) *Database {
	t.Helper()
	db, err := ReadDatFile("testdata/toy.dat", ReadOptions{NoClasses: true})
	require.NoError(t, err)
	return db
}

// classesDB has two class items and one attribute.
func classesDB(t *testing.T) *Database {
	t.Helper()
	db, err := ReadDatFile("testdata/classes.dat", ReadOptions{NbValues: 1})
	require.NoError(t, err)
	return db
}

func randomDB(t *testing.T, seed int64, nbItems, nbTransactions int, density float64) *Database {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	transactions := make([][]int, nbTransactions)
	for k := range transactions {
		for i := 1; i <= nbItems; i++ {
			if rng.Float64() < density {
				transactions[k] = append(transactions[k], i)
			}
		}
	}
	db, err := FromTransactions(transactions, ReadOptions{NoClasses: true})
	require.NoError(t, err)
	return db
}

// subsets calls fn on every non empty set of non class item indices.
func subsets(db *Database, fn func(idx []int)) {
	first, n := db.NbClass(), db.NbItems()-db.NbClass()
	for mask := 1; mask < 1<<n; mask++ {
		var idx []int
		for b := 0; b < n; b++ {
			if mask&(1<<b) != 0 {
				idx = append(idx, first+b)
			}
		}
		fn(idx)
	}
}

// bruteForce returns the label sets of the itemsets accepted by keep.
func bruteForce(db *Database, keep func(idx []int) bool) [][]int {
	var out [][]int
	subsets(db, func(idx []int) {
		if keep(idx) {
			out = append(out, labelsOf(db, idx))
		}
	})
	return out
}

func labelsOf(db *Database, idx []int) []int {
	labels := make([]int, len(idx))
	for k, i := range idx {
		labels[k] = db.Label(i)
	}
	return labels
}

func indicesOf(db *Database, labels []int) []int {
	idx := make([]int, len(labels))
	for k, l := range labels {
		idx[k], _ = db.IndexOf(l)
	}
	return idx
}

// others returns the non class items outside idx.
func others(db *Database, idx []int) []int {
	var out []int
	for j := db.NbClass(); j < db.NbItems(); j++ {
		if !slices.Contains(idx, j) {
			out = append(out, j)
		}
	}
	return out
}

func with(idx []int, j int) []int {
	out := append(append([]int{}, idx...), j)
	slices.Sort(out)
	return out
}

func without(idx []int, k int) []int {
	return append(append([]int{}, idx[:k]...), idx[k+1:]...)
}

// measureValue evaluates m on the itemset idx.
func measureValue(db *Database, idx []int, m Measure) int {
	switch m.Kind {
	case Freq:
		return db.Frequency(idx)
	case Freq1:
		return db.Frequency(with(idx, 0))
	case Length:
		return len(idx)
	case Area:
		return db.Frequency(idx) * len(idx)
	case MaxFreq:
		freq, v := db.ItemFrequency(), 0
		for _, i := range idx {
			v = max(v, freq[i])
		}
		return v
	}
	values := db.Values()[m.Num]
	lo, hi := maxValue(values), 0
	for _, i := range idx {
		lo, hi = min(lo, values[i]), max(hi, values[i])
	}
	switch m.Kind {
	case MinValue:
		return lo
	case MaxValue:
		return hi
	}
	return (lo + hi) / 2
}

// closedFor reports whether no item can be added to idx without changing
// one of measures.
func closedFor(db *Database, idx []int, measures []Measure) bool {
	for _, j := range others(db, idx) {
		constant := true
		for _, m := range measures {
			if measureValue(db, with(idx, j), m) != measureValue(db, idx, m) {
				constant = false
				break
			}
		}
		if constant {
			return false
		}
	}
	return true
}

func isGenerator(db *Database, idx []int) bool {
	f := db.Frequency(idx)
	for k := range idx {
		if db.Frequency(without(idx, k)) == f {
			return false
		}
	}
	return true
}

func mine(t *testing.T, db *Database, task Task) *Result {
	t.Helper()
	res, err := Mine(context.Background(), db, task)
	require.NoError(t, err)
	return res
}

func itemsets(res *Result) [][]int {
	out := make([][]int, len(res.Patterns))
	for k, p := range res.Patterns {
		out[k] = p.Items
	}
	return out
}
