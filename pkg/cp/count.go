package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Count enforces n = |{b ∈ bools : b = 1}| over boolean variables.
//
// Propagation is bounds-consistent:
//   - n ∈ [#true, #true + #free]
//   - n.UB == #true forces every free boolean to 0
//   - n.LB == #true + #free forces every free boolean to 1
type Count struct {
	bools []*IntVar
	n     *IntVar
}

// NewCount creates a Count propagator. It does not post it.
func NewCount(bools []*IntVar, n *IntVar) (*Count, error) {
	if len(bools) == 0 {
		return nil, errors.New("Count: bools must be non-empty")
	}
	if n == nil {
		return nil, errors.New("Count: count variable must not be nil")
	}
	for i, b := range bools {
		if b == nil {
			return nil, errors.Errorf("Count: nil variable at index %d", i)
		}
		if b.LB() < 0 || b.UB() > 1 {
			return nil, errors.Errorf("Count: variable %s is not boolean", b.Name())
		}
	}
	bb := make([]*IntVar, len(bools))
	copy(bb, bools)
	return &Count{bools: bb, n: n}, nil
}

// Variables implements Propagator.
func (c *Count) Variables() []*IntVar {
	out := make([]*IntVar, 0, len(c.bools)+1)
	out = append(out, c.bools...)
	return append(out, c.n)
}

// Type implements Propagator.
func (c *Count) Type() string { return "Count" }

func (c *Count) String() string {
	return fmt.Sprintf("Count(%d vars, %s)", len(c.bools), c.n)
}

// Propagate implements Propagator.
func (c *Count) Propagate() error {
	nTrue, nFree := 0, 0
	for _, b := range c.bools {
		switch {
		case b.LB() == 1:
			nTrue++
		case b.UB() == 1:
			nFree++
		}
	}
	if err := c.n.UpdateBounds(nTrue, nTrue+nFree, c); err != nil {
		return err
	}
	if nFree == 0 {
		return nil
	}
	var force func(*IntVar) error
	switch {
	case c.n.UB() == nTrue:
		force = func(b *IntVar) error { return b.SetToFalse(c) }
	case c.n.LB() == nTrue+nFree:
		force = func(b *IntVar) error { return b.SetToTrue(c) }
	default:
		return nil
	}
	for _, b := range c.bools {
		if !b.IsInstantiated() {
			if err := force(b); err != nil {
				return err
			}
		}
	}
	return nil
}
