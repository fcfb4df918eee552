package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Event describes how a variable domain changed.
type Event uint8

const (
	// EventIncLow is raised when the lower bound increases.
	EventIncLow Event = 1 << iota
	// EventDecUpp is raised when the upper bound decreases.
	EventDecUpp
	// EventInstantiate is raised when the domain becomes a singleton.
	EventInstantiate

	// EventAll matches every domain change.
	EventAll = EventIncLow | EventDecUpp | EventInstantiate
)

// IntVar is an integer variable with a bounded domain [LB, UB]. Both bounds
// live in reversible cells, so a domain is restored on backtrack.
// A boolean variable is an IntVar with domain [0, 1].
type IntVar struct {
	id       int
	name     string
	store    *Store
	lo, hi   *StateInt
	watchers []*propHandle
}

// ID returns the variable index inside its store.
func (v *IntVar) ID() int { return v.id }

// Name returns the variable name.
func (v *IntVar) Name() string { return v.name }

// LB returns the current lower bound.
func (v *IntVar) LB() int { return v.lo.Get() }

// UB returns the current upper bound.
func (v *IntVar) UB() int { return v.hi.Get() }

// Size returns the number of values in the domain.
func (v *IntVar) Size() int { return v.hi.Get() - v.lo.Get() + 1 }

// Contains reports whether val lies within the bounds.
func (v *IntVar) Contains(val int) bool { return val >= v.lo.Get() && val <= v.hi.Get() }

// IsInstantiated reports whether the domain is a singleton.
func (v *IntVar) IsInstantiated() bool { return v.lo.Get() == v.hi.Get() }

// IsInstantiatedTo reports whether the domain is exactly {val}.
func (v *IntVar) IsInstantiatedTo(val int) bool {
	return v.lo.Get() == val && v.hi.Get() == val
}

// Value returns the value of an instantiated variable. The result is the
// lower bound when the variable is not instantiated.
func (v *IntVar) Value() int { return v.lo.Get() }

// UpdateLowerBound raises the lower bound to lb. cause is the propagator
// performing the change (nil for search decisions); it is not woken up again
// by its own modification.
func (v *IntVar) UpdateLowerBound(lb int, cause Propagator) error {
	lo, hi := v.lo.Get(), v.hi.Get()
	if lb <= lo {
		return nil
	}
	if lb > hi {
		return ErrInconsistent
	}
	v.lo.Set(lb)
	evt := EventIncLow
	if lb == hi {
		evt |= EventInstantiate
	}
	v.store.notify(v, evt, cause)
	return nil
}

// UpdateUpperBound lowers the upper bound to ub.
func (v *IntVar) UpdateUpperBound(ub int, cause Propagator) error {
	lo, hi := v.lo.Get(), v.hi.Get()
	if ub >= hi {
		return nil
	}
	if ub < lo {
		return ErrInconsistent
	}
	v.hi.Set(ub)
	evt := EventDecUpp
	if ub == lo {
		evt |= EventInstantiate
	}
	v.store.notify(v, evt, cause)
	return nil
}

// UpdateBounds intersects the domain with [lb, ub].
func (v *IntVar) UpdateBounds(lb, ub int, cause Propagator) error {
	lo, hi := v.lo.Get(), v.hi.Get()
	if lb < lo {
		lb = lo
	}
	if ub > hi {
		ub = hi
	}
	if lb > ub {
		return ErrInconsistent
	}
	var evt Event
	if lb > lo {
		v.lo.Set(lb)
		evt |= EventIncLow
	}
	if ub < hi {
		v.hi.Set(ub)
		evt |= EventDecUpp
	}
	if evt == 0 {
		return nil
	}
	if lb == ub {
		evt |= EventInstantiate
	}
	v.store.notify(v, evt, cause)
	return nil
}

// InstantiateTo reduces the domain to {val}.
func (v *IntVar) InstantiateTo(val int, cause Propagator) error {
	return v.UpdateBounds(val, val, cause)
}

// SetToTrue instantiates a boolean variable to 1.
func (v *IntVar) SetToTrue(cause Propagator) error { return v.InstantiateTo(1, cause) }

// SetToFalse instantiates a boolean variable to 0.
func (v *IntVar) SetToFalse(cause Propagator) error { return v.InstantiateTo(0, cause) }

// removeValue excludes val from the domain. Only a bound can be removed
// from a bounded domain.
func (v *IntVar) removeValue(val int, cause Propagator) error {
	switch {
	case !v.Contains(val):
		return nil
	case val == v.lo.Get():
		return v.UpdateLowerBound(val+1, cause)
	case val == v.hi.Get():
		return v.UpdateUpperBound(val-1, cause)
	default:
		return errors.Wrapf(ErrInvalidArgument, "cannot remove interior value %d from %s", val, v)
	}
}

func (v *IntVar) String() string {
	if v.IsInstantiated() {
		return fmt.Sprintf("%s = %d", v.name, v.lo.Get())
	}
	return fmt.Sprintf("%s = [%d,%d]", v.name, v.lo.Get(), v.hi.Get())
}
