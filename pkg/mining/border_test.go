package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

func TestBordersOnToyDataset(t *testing.T) {
	db := toyDB(t)
	for _, h := range []Heuristic{MinCovHeuristic, InputOrderHeuristic} {
		t.Run(h.String(), func(t *testing.T) {
			mfi := mine(t, db, Task{Kind: TaskMaximal, Threshold: 3, Heuristic: h})
			assert.ElementsMatch(t, [][]int{{1, 2, 5}, {1, 3}, {2, 3, 5}}, itemsets(mfi))

			mii := mine(t, db, Task{Kind: TaskMinimal, Threshold: 3, Heuristic: h})
			assert.ElementsMatch(t, [][]int{{1, 2, 3}, {1, 3, 5}, {4}}, itemsets(mii))
			for _, p := range mii.Patterns {
				assert.Less(t, p.Measures[0], 3)
			}
		})
	}
}

func TestBordersMatchBruteForce(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		db := randomDB(t, seed, 8, 30, 0.5)
		s := 6
		maximal := bruteForce(db, func(idx []int) bool {
			if db.Frequency(idx) < s {
				return false
			}
			for _, j := range others(db, idx) {
				if db.Frequency(with(idx, j)) >= s {
					return false
				}
			}
			return true
		})
		minimal := bruteForce(db, func(idx []int) bool {
			if db.Frequency(idx) >= s {
				return false
			}
			for k := range idx {
				if db.Frequency(without(idx, k)) < s {
					return false
				}
			}
			return true
		})
		assert.ElementsMatch(t, maximal, itemsets(mine(t, db, Task{Kind: TaskMaximal, Threshold: s})), "seed %d", seed)
		assert.ElementsMatch(t, minimal, itemsets(mine(t, db, Task{Kind: TaskMinimal, Threshold: s})), "seed %d", seed)
	}
}

func TestFrequentSubsPropagation(t *testing.T) {
	db := toyDB(t)
	s := cp.NewStore()
	items := s.NewBoolVars("item", db.NbItems())
	p, err := NewFrequentSubs(db, 3, items)
	require.NoError(t, err)
	require.NoError(t, s.Post(p))

	// {A, D}: A alone is frequent but D alone is not
	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	require.NoError(t, items[3].SetToTrue(nil))
	assert.True(t, cp.IsContradiction(s.Propagate()))
	s.Env().PopWorld()

	// with A and B, D is excluded since {B, D} is infrequent while C stays
	// since {A, C} and {B, C} are frequent
	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	require.NoError(t, items[1].SetToTrue(nil))
	require.NoError(t, s.Propagate())
	assert.True(t, items[3].IsInstantiatedTo(0))
	assert.False(t, items[2].IsInstantiated())
	s.Env().PopWorld()
}

func TestInfrequentSupersPropagation(t *testing.T) {
	db := toyDB(t)
	s := cp.NewStore()
	items := s.NewBoolVars("item", db.NbItems())
	p, err := NewInfrequentSupers(db, 3, items)
	require.NoError(t, err)
	require.NoError(t, s.Post(p))

	// {A, B} with C and D excluded: E can only be added
	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	require.NoError(t, items[1].SetToTrue(nil))
	require.NoError(t, items[2].SetToFalse(nil))
	require.NoError(t, items[3].SetToFalse(nil))
	require.NoError(t, s.Propagate())
	assert.True(t, items[4].IsInstantiatedTo(1), "{A, B} is not maximal since {A, B, E} is frequent")
	s.Env().PopWorld()

	// {A} with everything else excluded has the frequent superset {A, B}
	s.Env().PushWorld()
	require.NoError(t, items[0].SetToTrue(nil))
	for _, i := range []int{1, 2, 3, 4} {
		require.NoError(t, items[i].SetToFalse(nil))
	}
	assert.True(t, cp.IsContradiction(s.Propagate()))
	s.Env().PopWorld()

	_, err = NewInfrequentSupers(db, -1, items)
	assert.Error(t, err)
}
