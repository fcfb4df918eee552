package cp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect records the value of vars at every solution.
func collect(s *Store, vars []*IntVar) *[][]int {
	var sols [][]int
	s.AddMonitor(OnSolutionFunc(func() error {
		sol := make([]int, len(vars))
		for i, v := range vars {
			sol[i] = v.Value()
		}
		sols = append(sols, sol)
		return nil
	}))
	return &sols
}

func TestVarBounds(t *testing.T) {
	s := NewStore()
	x := s.NewIntVar("x", 0, 10)
	s.Env().PushWorld()
	require.NoError(t, x.UpdateLowerBound(3, nil))
	require.NoError(t, x.UpdateUpperBound(5, nil))
	assert.Equal(t, 3, x.LB())
	assert.Equal(t, 5, x.UB())
	assert.ErrorIs(t, x.UpdateLowerBound(6, nil), ErrInconsistent)
	require.NoError(t, x.InstantiateTo(4, nil))
	assert.True(t, x.IsInstantiatedTo(4))
	assert.Equal(t, "x = 4", x.String())
	s.Env().PopWorld()
	assert.Equal(t, 0, x.LB())
	assert.Equal(t, 10, x.UB())
}

func TestPostRejectsForeignVariables(t *testing.T) {
	s1, s2 := NewStore(), NewStore()
	b := s1.NewBoolVars("b", 2)
	n := s2.NewIntVar("n", 0, 2)
	c, err := NewCount(b, n)
	require.NoError(t, err)
	assert.ErrorIs(t, s1.Post(c), ErrInvalidArgument)
}

func TestCountPropagation(t *testing.T) {
	s := NewStore()
	b := s.NewBoolVars("b", 3)
	n := s.NewIntVar("n", 0, 3)
	c, err := NewCount(b, n)
	require.NoError(t, err)
	require.NoError(t, s.Post(c))
	require.NoError(t, s.Propagate())

	s.Env().PushWorld()
	require.NoError(t, b[0].SetToTrue(nil))
	require.NoError(t, n.UpdateUpperBound(1, nil))
	require.NoError(t, s.Propagate())
	assert.True(t, b[1].IsInstantiatedTo(0))
	assert.True(t, b[2].IsInstantiatedTo(0))
	assert.True(t, n.IsInstantiatedTo(1))
	s.Env().PopWorld()
	assert.False(t, b[1].IsInstantiated())
}

func TestSolveEnumeratesCount(t *testing.T) {
	s := NewStore()
	b := s.NewBoolVars("b", 4)
	n := s.NewIntVar("n", 2, 2)
	c, err := NewCount(b, n)
	require.NoError(t, err)
	require.NoError(t, s.Post(c))
	sols := collect(s, b)

	stats, err := s.Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, *sols, 6)
	assert.Equal(t, 6, stats.SolutionsFound)
	for _, sol := range *sols {
		assert.Equal(t, 2, sol[0]+sol[1]+sol[2]+sol[3])
	}
	// the store is restored after search
	for _, v := range b {
		assert.False(t, v.IsInstantiated())
	}
}

func TestSolveInfeasible(t *testing.T) {
	s := NewStore()
	b := s.NewBoolVars("b", 2)
	n := s.NewIntVar("n", 3, 5)
	c, err := NewCount(b, n)
	require.NoError(t, err)
	require.NoError(t, s.Post(c))
	sols := collect(s, b)
	_, err = s.Solve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, *sols)
}

func TestSolveLimits(t *testing.T) {
	newModel := func() (*Store, *[][]int) {
		s := NewStore()
		b := s.NewBoolVars("b", 6)
		return s, collect(s, b)
	}

	s, sols := newModel()
	_, err := s.Solve(context.Background(), WithSolutionLimit(5))
	require.NoError(t, err)
	assert.Len(t, *sols, 5)

	s, _ = newModel()
	_, err = s.Solve(context.Background(), WithNodeLimit(3))
	assert.ErrorIs(t, err, ErrSearchLimitReached)

	s, sols = newModel()
	s.AddMonitor(OnSolutionFunc(func() error { return ErrStopSearch }))
	_, err = s.Solve(context.Background())
	require.NoError(t, err)
	assert.Len(t, *sols, 1)

	s, _ = newModel()
	boom := errors.New("boom")
	s.AddMonitor(OnSolutionFunc(func() error { return boom }))
	_, err = s.Solve(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSolveCancelled(t *testing.T) {
	s := NewStore()
	s.NewBoolVars("b", 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Solve(ctx, WithTimeLimit(time.Second))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveValueOrder(t *testing.T) {
	s := NewStore()
	b := s.NewBoolVars("b", 2)
	sols := collect(s, b)
	_, err := s.Solve(context.Background(), WithSearch(InputOrder(b), ValueMax))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 1}, {1, 0}, {0, 1}, {0, 0}}, *sols)
}

func TestSolveIntegerDomains(t *testing.T) {
	s := NewStore()
	x := s.NewIntVar("x", 1, 3)
	y := s.NewIntVar("y", 0, 2)
	sols := collect(s, []*IntVar{x, y})
	_, err := s.Solve(context.Background(), WithSearch(FirstFail([]*IntVar{x, y}), ValueMin))
	require.NoError(t, err)
	assert.Len(t, *sols, 9)
}

func TestValidate(t *testing.T) {
	s := NewStore()
	s.NewIntVar("bad", 2, 1)
	_, err := s.Solve(context.Background())
	assert.Error(t, err)
}

func TestSolutionLimitOption(t *testing.T) {
	assert.Zero(t, SolutionLimit())
	assert.Equal(t, 5, SolutionLimit(WithNodeLimit(2), WithSolutionLimit(5), nil))
	assert.Zero(t, SolutionLimit(WithSolutionLimit(5), WithSolutionLimit(0)))
}
