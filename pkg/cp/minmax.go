package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxOfSelected enforces r = max({empty} ∪ {values[i] : bools[i] = 1}).
// It links an aggregate such as "largest attribute value of the pattern"
// to the item booleans.
type MaxOfSelected struct {
	bools  []*IntVar
	values []int
	r      *IntVar
	empty  int
}

// NewMaxOfSelected creates a MaxOfSelected propagator. empty is the value of
// r when no boolean is selected.
func NewMaxOfSelected(bools []*IntVar, values []int, r *IntVar, empty int) (*MaxOfSelected, error) {
	if err := checkSelected("MaxOfSelected", bools, values, r); err != nil {
		return nil, err
	}
	return &MaxOfSelected{bools: bools, values: values, r: r, empty: empty}, nil
}

// Variables implements Propagator.
func (m *MaxOfSelected) Variables() []*IntVar { return append(append([]*IntVar{}, m.bools...), m.r) }

// Type implements Propagator.
func (m *MaxOfSelected) Type() string { return "MaxOfSelected" }

func (m *MaxOfSelected) String() string {
	return fmt.Sprintf("MaxOfSelected(%d vars, %s)", len(m.bools), m.r)
}

// Propagate implements Propagator.
func (m *MaxOfSelected) Propagate() error {
	// a selected value can never exceed r
	ub := m.r.UB()
	for i, b := range m.bools {
		if !b.IsInstantiated() && m.values[i] > ub {
			if err := b.SetToFalse(m); err != nil {
				return err
			}
		}
	}
	lo, hi := m.empty, m.empty
	for i, b := range m.bools {
		if b.UB() == 0 {
			continue
		}
		w := m.values[i]
		if w > hi {
			hi = w
		}
		if b.LB() == 1 && w > lo {
			lo = w
		}
	}
	if err := m.r.UpdateBounds(lo, hi, m); err != nil {
		return err
	}
	if m.r.LB() <= lo {
		return nil
	}
	// r must be reached by some free boolean
	support := -1
	for i, b := range m.bools {
		if b.UB() == 1 && m.values[i] >= m.r.LB() {
			if support >= 0 {
				return nil
			}
			support = i
		}
	}
	if support < 0 {
		return ErrInconsistent
	}
	if err := m.bools[support].SetToTrue(m); err != nil {
		return err
	}
	return m.r.UpdateLowerBound(m.values[support], m)
}

// MinOfSelected enforces r = min({empty} ∪ {values[i] : bools[i] = 1}).
type MinOfSelected struct {
	bools  []*IntVar
	values []int
	r      *IntVar
	empty  int
}

// NewMinOfSelected creates a MinOfSelected propagator. empty is the value of
// r when no boolean is selected.
func NewMinOfSelected(bools []*IntVar, values []int, r *IntVar, empty int) (*MinOfSelected, error) {
	if err := checkSelected("MinOfSelected", bools, values, r); err != nil {
		return nil, err
	}
	return &MinOfSelected{bools: bools, values: values, r: r, empty: empty}, nil
}

// Variables implements Propagator.
func (m *MinOfSelected) Variables() []*IntVar { return append(append([]*IntVar{}, m.bools...), m.r) }

// Type implements Propagator.
func (m *MinOfSelected) Type() string { return "MinOfSelected" }

func (m *MinOfSelected) String() string {
	return fmt.Sprintf("MinOfSelected(%d vars, %s)", len(m.bools), m.r)
}

// Propagate implements Propagator.
func (m *MinOfSelected) Propagate() error {
	lb := m.r.LB()
	for i, b := range m.bools {
		if !b.IsInstantiated() && m.values[i] < lb {
			if err := b.SetToFalse(m); err != nil {
				return err
			}
		}
	}
	lo, hi := m.empty, m.empty
	for i, b := range m.bools {
		if b.UB() == 0 {
			continue
		}
		w := m.values[i]
		if w < lo {
			lo = w
		}
		if b.LB() == 1 && w < hi {
			hi = w
		}
	}
	if err := m.r.UpdateBounds(lo, hi, m); err != nil {
		return err
	}
	if m.r.UB() >= hi {
		return nil
	}
	support := -1
	for i, b := range m.bools {
		if b.UB() == 1 && m.values[i] <= m.r.UB() {
			if support >= 0 {
				return nil
			}
			support = i
		}
	}
	if support < 0 {
		return ErrInconsistent
	}
	if err := m.bools[support].SetToTrue(m); err != nil {
		return err
	}
	return m.r.UpdateUpperBound(m.values[support], m)
}

func checkSelected(name string, bools []*IntVar, values []int, r *IntVar) error {
	if len(bools) == 0 {
		return errors.Errorf("%s: bools must be non-empty", name)
	}
	if len(values) != len(bools) {
		return errors.Errorf("%s: %d values for %d variables", name, len(values), len(bools))
	}
	if r == nil {
		return errors.Errorf("%s: result variable r must not be nil", name)
	}
	for i, b := range bools {
		if b == nil {
			return errors.Errorf("%s: nil variable at index %d", name, i)
		}
	}
	return nil
}
