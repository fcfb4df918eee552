package mining

import (
	"strings"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDatToy(t *testing.T) {
	db := toyDB(t)
	assert.Equal(t, 5, db.NbItems())
	assert.Equal(t, 7, db.NbTransactions())
	assert.Equal(t, 0, db.NbClass())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, db.Items())
	assert.Equal(t, []int{5, 5, 5, 2, 5}, db.ItemFrequency())
	assert.Equal(t, 3, db.Frequency([]int{0, 1, 4}))
	assert.Equal(t, 1, db.Frequency([]int{0, 1, 2}))
	assert.Equal(t, 7, db.Frequency(nil))
}

func TestReadDatClasses(t *testing.T) {
	db := classesDB(t)
	assert.Equal(t, 7, db.NbItems())
	assert.Equal(t, 6, db.NbTransactions(), "blank and comment lines are skipped")
	assert.Equal(t, 2, db.NbClass())
	assert.Equal(t, [2]int{4, 2}, db.ClassCount())
	assert.InDelta(t, 22.0/42.0, db.Density(), 1e-9)

	require.Equal(t, 1, db.NbValues())
	assert.Equal(t, []int{0, 0, 150, 225, 50, 300, 100}, db.Values()[0])

	idx, ok := db.IndexOf(5)
	require.True(t, ok)
	assert.Equal(t, 4, idx)
	assert.Equal(t, 5, db.Label(idx))
	_, ok = db.IndexOf(42)
	assert.False(t, ok)
}

func TestReadDatErrors(t *testing.T) {
	_, err := ReadDat(strings.NewReader("1 2\n3 x\n"), ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadDatFile("testdata/missing.dat", ReadOptions{})
	assert.Error(t, err)

	_, err = ReadDatFile("testdata/toy.dat", ReadOptions{NbValues: 1})
	assert.Error(t, err, "toy.dat has no attribute file")

	_, err = ReadDat(strings.NewReader("1 2\n"), ReadOptions{Values: [][]int{{1}}})
	assert.Error(t, err, "attribute row of the wrong length")
}

func TestReadLists(t *testing.T) {
	items, err := ReadItemListFile("testdata/required.txt")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 6}, items)

	labels, err := ReadLabelsFile("testdata/classes.labels")
	require.NoError(t, err)
	assert.Len(t, labels, 7)
	assert.Equal(t, "milk", labels[3])

	values, err := ReadValues(strings.NewReader("0.1\n2\n-1.005\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 200, -100}, values)
}

func TestNewDatabaseValidation(t *testing.T) {
	cover := bitset.New(2).Set(0)
	tests := []struct {
		name    string
		items   []int
		values  [][]int
		nbClass int
		covers  []*bitset.BitSet
		n       int
	}{
		{"missing cover", []int{1, 2}, nil, 0, []*bitset.BitSet{cover}, 2},
		{"duplicate label", []int{1, 1}, nil, 0, []*bitset.BitSet{cover, cover}, 2},
		{"too many classes", []int{1}, nil, 2, []*bitset.BitSet{cover}, 2},
		{"transaction out of range", []int{1}, nil, 0, []*bitset.BitSet{bitset.New(8).Set(5)}, 2},
		{"nil cover", []int{1}, nil, 0, []*bitset.BitSet{nil}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatabase(tt.items, tt.values, tt.nbClass, tt.covers, tt.n)
			assert.Error(t, err)
		})
	}
}

func TestCoverOf(t *testing.T) {
	db := toyDB(t)
	c := db.CoverOf([]int{1, 2})
	assert.Equal(t, []uint{1, 5, 6}, setBits(c))
}

func setBits(b *bitset.BitSet) []uint {
	var out []uint
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}
