package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Times enforces z = x * y for non-negative variables with bounds reasoning.
type Times struct {
	x, y, z *IntVar
}

// NewTimes creates a Times propagator.
func NewTimes(x, y, z *IntVar) (*Times, error) {
	for _, v := range []*IntVar{x, y, z} {
		if v == nil {
			return nil, errors.New("Times: variables must not be nil")
		}
		if v.LB() < 0 {
			return nil, errors.Errorf("Times: %s must be non-negative", v.Name())
		}
	}
	return &Times{x: x, y: y, z: z}, nil
}

// Variables implements Propagator.
func (t *Times) Variables() []*IntVar { return []*IntVar{t.x, t.y, t.z} }

// Type implements Propagator.
func (t *Times) Type() string { return "Times" }

func (t *Times) String() string { return fmt.Sprintf("Times(%s * %s = %s)", t.x, t.y, t.z) }

// Propagate implements Propagator.
func (t *Times) Propagate() error {
	for {
		before := t.x.Size() + t.y.Size() + t.z.Size()
		if err := t.z.UpdateBounds(t.x.LB()*t.y.LB(), t.x.UB()*t.y.UB(), t); err != nil {
			return err
		}
		if err := divBounds(t.x, t.y, t.z, t); err != nil {
			return err
		}
		if err := divBounds(t.y, t.x, t.z, t); err != nil {
			return err
		}
		if t.x.Size()+t.y.Size()+t.z.Size() == before {
			return nil
		}
	}
}

// divBounds narrows a in a * b = z.
func divBounds(a, b, z *IntVar, cause Propagator) error {
	if b.LB() > 0 {
		if err := a.UpdateUpperBound(z.UB()/b.LB(), cause); err != nil {
			return err
		}
	}
	if b.UB() > 0 {
		return a.UpdateLowerBound((z.LB()+b.UB()-1)/b.UB(), cause)
	}
	if z.LB() > 0 {
		return ErrInconsistent
	}
	return nil
}

// Average enforces r = (a + b) / 2 (integer division) for non-negative
// variables.
type Average struct {
	a, b, r *IntVar
}

// NewAverage creates an Average propagator.
func NewAverage(a, b, r *IntVar) (*Average, error) {
	for _, v := range []*IntVar{a, b, r} {
		if v == nil {
			return nil, errors.New("Average: variables must not be nil")
		}
		if v.LB() < 0 {
			return nil, errors.Errorf("Average: %s must be non-negative", v.Name())
		}
	}
	return &Average{a: a, b: b, r: r}, nil
}

// Variables implements Propagator.
func (m *Average) Variables() []*IntVar { return []*IntVar{m.a, m.b, m.r} }

// Type implements Propagator.
func (m *Average) Type() string { return "Average" }

func (m *Average) String() string { return fmt.Sprintf("Average(%s, %s, %s)", m.a, m.b, m.r) }

// Propagate implements Propagator.
func (m *Average) Propagate() error {
	for {
		before := m.a.Size() + m.b.Size() + m.r.Size()
		if err := m.r.UpdateBounds((m.a.LB()+m.b.LB())/2, (m.a.UB()+m.b.UB())/2, m); err != nil {
			return err
		}
		// a + b ∈ [2 r.LB, 2 r.UB + 1]
		sumLo, sumHi := 2*m.r.LB(), 2*m.r.UB()+1
		if err := m.a.UpdateBounds(sumLo-m.b.UB(), sumHi-m.b.LB(), m); err != nil {
			return err
		}
		if err := m.b.UpdateBounds(sumLo-m.a.UB(), sumHi-m.a.LB(), m); err != nil {
			return err
		}
		if m.a.Size()+m.b.Size()+m.r.Size() == before {
			return nil
		}
	}
}
