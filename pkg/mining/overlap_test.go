package mining

import (
	"context"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

func TestJaccard(t *testing.T) {
	a := bitset.New(8).Set(0).Set(1).Set(2)
	b := bitset.New(8).Set(1).Set(2).Set(3)
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	assert.InDelta(t, 1.0, Jaccard(a, a), 1e-9)
	assert.Equal(t, 0.0, Jaccard(bitset.New(8), bitset.New(8)))
}

func TestDiverseTaskIsPairwiseDiverse(t *testing.T) {
	db := randomDB(t, 9, 10, 60, 0.5)
	for _, jmax := range []float64{0.1, 0.3, 0.6} {
		res := mine(t, db, Task{Kind: TaskDiverse, MinFreq: 8, JMax: jmax, SaveTransactions: true})
		require.NotEmpty(t, res.Patterns)
		for i, p := range res.Patterns {
			idx := indicesOf(db, p.Items)
			assert.True(t, closedFor(db, idx, []Measure{MeasureFreq}))
			assert.GreaterOrEqual(t, p.Measures[0], 8)
			for _, q := range res.Patterns[:i] {
				assert.LessOrEqual(t, Jaccard(p.Transactions, q.Transactions), jmax)
			}
		}
	}
}

// greedyDiverse keeps the patterns of res whose Jaccard index with every
// pattern kept before is at most jmax.
func greedyDiverse(res *Result, jmax float64) [][]int {
	var kept [][]int
	var history []*bitset.BitSet
	for _, p := range res.Patterns {
		keep := true
		for _, h := range history {
			if Jaccard(p.Transactions, h) > jmax {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, p.Items)
			history = append(history, p.Transactions)
		}
	}
	return kept
}

// The pruning only removes patterns the history would refuse: with a fixed
// branching order, mining diverse patterns is the same as filtering the
// closed patterns of frequency at least theta greedily.
func TestDiverseTaskMatchesGreedyFilter(t *testing.T) {
	db := randomDB(t, 21, 9, 50, 0.5)
	tests := []struct {
		name           string
		minFreq, theta int
		jmax           float64
	}{
		{"theta defaults to min freq", 6, 0, 0.25},
		{"theta above min freq", 1, 25, 0.2},
		{"theta above min freq, loose jmax", 1, 25, 0.4},
		{"theta below min freq", 6, 3, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floor := max(tt.minFreq, tt.theta)
			closed := mine(t, db, Task{Kind: TaskClosed, MinFreq: floor, Heuristic: InputOrderHeuristic, SaveTransactions: true})
			want := greedyDiverse(closed, tt.jmax)
			require.NotEmpty(t, want)
			res := mine(t, db, Task{
				Kind:      TaskDiverse,
				MinFreq:   tt.minFreq,
				Theta:     tt.theta,
				JMax:      tt.jmax,
				Heuristic: InputOrderHeuristic,
			})
			assert.Equal(t, want, itemsets(res))
			for _, p := range res.Patterns {
				assert.GreaterOrEqual(t, p.Measures[0], floor)
			}
		})
	}
}

func TestDiverseTaskSolutionLimit(t *testing.T) {
	db := randomDB(t, 21, 9, 50, 0.5)
	task := Task{Kind: TaskDiverse, MinFreq: 3, JMax: 0.4, Heuristic: InputOrderHeuristic}
	all := mine(t, db, task)
	require.Greater(t, len(all.Patterns), 3)

	res, err := Mine(context.Background(), db, task, cp.WithSolutionLimit(3))
	require.NoError(t, err)
	assert.Equal(t, itemsets(all)[:3], itemsets(res))
	assert.GreaterOrEqual(t, res.Stats.SolutionsFound, 3)
}

func TestOverlapPropagation(t *testing.T) {
	db := toyDB(t)
	s := cp.NewStore()
	items := s.NewBoolVars("item", db.NbItems())
	o, err := NewOverlap(db, items, 0.5, 3)
	require.NoError(t, err)
	require.NoError(t, s.Post(o))
	assert.True(t, o.PropagateOnNode())

	// history: {B, E} with cover {t0, t1, t2, t5, t6}
	s.Env().PushWorld()
	require.NoError(t, items[1].SetToTrue(nil))
	require.NoError(t, items[4].SetToTrue(nil))
	for _, i := range []int{0, 2, 3} {
		require.NoError(t, items[i].SetToFalse(nil))
	}
	require.NoError(t, o.OnSolution())
	s.Env().PopWorld()
	require.Len(t, o.Itemsets(), 1)
	assert.Equal(t, []int{1, 4}, o.Itemsets()[0])
	assert.Equal(t, uint(5), o.Covers()[0].Count())

	// any extension of the empty pattern may still be diverse
	require.NoError(t, s.Propagate())
	for _, x := range items {
		assert.False(t, x.IsInstantiated())
	}

	// with A included, adding B or E leaves the cover {t0, t1, t2}, whose
	// Jaccard index with the history is 3/5
	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	require.NoError(t, s.Propagate())
	assert.True(t, items[1].IsInstantiatedTo(0))
	assert.True(t, items[4].IsInstantiatedTo(0))
	assert.False(t, items[2].IsInstantiated())
	assert.False(t, items[3].IsInstantiated())

	// at the fixpoint the filtering reuses its scratch covers
	var perr error
	allocs := testing.AllocsPerRun(20, func() { perr = o.Propagate() })
	require.NoError(t, perr)
	assert.Zero(t, allocs)
	s.Env().PopWorld()

	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	require.NoError(t, items[1].SetToTrue(nil))
	assert.True(t, cp.IsContradiction(s.Propagate()))
	s.Env().PopWorld()

	_, err = NewOverlap(db, items, 1.5, 3)
	assert.Error(t, err)
}
