package mining

import (
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// MeasureComputer maintains the value of a measure for the included items
// x+ of the current node, in reversible cells.
type MeasureComputer interface {
	// Compute folds item into the aggregate.
	Compute(item int)
	// IsConstant reports whether m(x+ ∪ {item}) == m(x+).
	IsConstant(item int) bool
	// IsConstantWith reports whether m(x+ ∪ {item, other}) == m(x+ ∪ {other}).
	IsConstantWith(item, other int) bool
}

// NewMeasureComputer returns the computer of m. Only measures that stay
// unchanged under closure can be computed: freq, freq1, min, max, mean
// and maxfreq.
func NewMeasureComputer(m Measure, db *Database, env *cp.Env, kind CoverKind) (MeasureComputer, error) {
	if m.IsAttribute() && (m.Num < 0 || m.Num >= db.NbValues()) {
		return nil, errors.Errorf("measure %s: database has %d attributes", m, db.NbValues())
	}
	switch m.Kind {
	case Freq:
		return &coverComputer{cover: NewCover(kind, db, env)}, nil
	case Freq1:
		if db.NbClass() == 0 {
			return nil, errors.Errorf("measure %s needs a database with classes", m)
		}
		return &coverComputer{cover: NewCoverFrom(kind, db, env, db.Words(0))}, nil
	case MaxValue:
		return newMaxComputer(db.Values()[m.Num], env), nil
	case MinValue:
		return newMinComputer(db.Values()[m.Num], env), nil
	case MeanValue:
		values := db.Values()[m.Num]
		return meanComputer{newMinComputer(values, env), newMaxComputer(values, env)}, nil
	case MaxFreq:
		return newMaxComputer(db.ItemFrequency(), env), nil
	}
	return nil, errors.Errorf("no closure computer for measure %s", m)
}

// coverComputer tracks the cover of x+: freq and freq1.
type coverComputer struct {
	cover Cover
}

func (c *coverComputer) Compute(item int)         { c.cover.And(item) }
func (c *coverComputer) IsConstant(item int) bool { return c.cover.IsSubsetOf(item) }

func (c *coverComputer) IsConstantWith(item, other int) bool {
	c.cover.ResetMask()
	c.cover.AndMask(other)
	return c.cover.MaskIsSubsetOf(item)
}

// maxComputer tracks max(values[i] : i ∈ x+), 0 for the empty pattern.
type maxComputer struct {
	values []int
	value  *cp.StateInt
}

func newMaxComputer(values []int, env *cp.Env) *maxComputer {
	return &maxComputer{values: values, value: env.NewInt(0)}
}

func (c *maxComputer) Compute(item int) {
	if v := c.values[item]; v > c.value.Get() {
		c.value.Set(v)
	}
}

func (c *maxComputer) IsConstant(item int) bool { return c.values[item] <= c.value.Get() }

func (c *maxComputer) IsConstantWith(item, other int) bool {
	return c.values[item] <= max(c.value.Get(), c.values[other])
}

// minComputer tracks min(values[i] : i ∈ x+), the largest value for the
// empty pattern.
type minComputer struct {
	values []int
	value  *cp.StateInt
}

func newMinComputer(values []int, env *cp.Env) *minComputer {
	top := 0
	for _, v := range values {
		top = max(top, v)
	}
	return &minComputer{values: values, value: env.NewInt(top)}
}

func (c *minComputer) Compute(item int) {
	if v := c.values[item]; v < c.value.Get() {
		c.value.Set(v)
	}
}

func (c *minComputer) IsConstant(item int) bool { return c.values[item] >= c.value.Get() }

func (c *minComputer) IsConstantWith(item, other int) bool {
	return c.values[item] >= min(c.value.Get(), c.values[other])
}

// meanComputer is constant when both min and max are.
type meanComputer struct {
	lo *minComputer
	hi *maxComputer
}

func (c meanComputer) Compute(item int) {
	c.lo.Compute(item)
	c.hi.Compute(item)
}

func (c meanComputer) IsConstant(item int) bool {
	return c.lo.IsConstant(item) && c.hi.IsConstant(item)
}

func (c meanComputer) IsConstantWith(item, other int) bool {
	return c.lo.IsConstantWith(item, other) && c.hi.IsConstantWith(item, other)
}
