package mining

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// ParetoMaximizer forbids the patterns dominated by an archived one, all
// objectives being maximised.
//
// For every objective i, the point DP_i that takes the lower bound of
// objective i and the upper bound of the others is the best pattern that
// can still get the smallest value of i. Any archived point a dominating
// DP_i raises the lower bound of objective i: to a[i] when a only exceeds
// DP_i on objective i, to a[i]+1 otherwise.
type ParetoMaximizer struct {
	objectives []*cp.IntVar
	archive    *Archive
	point      []int
}

// NewParetoMaximizer creates the dominance propagator of objectives. The
// measures of the archived patterns must start with the objectives, in the
// same order.
func NewParetoMaximizer(objectives []*cp.IntVar, archive *Archive) (*ParetoMaximizer, error) {
	if len(objectives) == 0 {
		return nil, errors.New("ParetoMaximizer: no objective")
	}
	if archive == nil {
		return nil, errors.New("ParetoMaximizer: nil archive")
	}
	if archive.Dimensions() != len(objectives) {
		return nil, errors.Errorf("ParetoMaximizer: archive compares %d measures, %d objectives",
			archive.Dimensions(), len(objectives))
	}
	for i, v := range objectives {
		if v == nil {
			return nil, errors.Errorf("ParetoMaximizer: nil objective %d", i)
		}
	}
	return &ParetoMaximizer{
		objectives: objectives,
		archive:    archive,
		point:      make([]int, len(objectives)),
	}, nil
}

// Variables implements cp.Propagator.
func (p *ParetoMaximizer) Variables() []*cp.IntVar { return p.objectives }

// Type implements cp.Propagator.
func (p *ParetoMaximizer) Type() string { return "ParetoMaximizer" }

func (p *ParetoMaximizer) String() string {
	return fmt.Sprintf("ParetoMaximizer(%d objectives, archive=%d)", len(p.objectives), p.archive.Len())
}

// PropagateOnNode implements cp.NodePropagator: the archive grows outside
// the fixpoint.
func (p *ParetoMaximizer) PropagateOnNode() bool { return true }

// Propagate implements cp.Propagator.
func (p *ParetoMaximizer) Propagate() error {
	for i := range p.objectives {
		if err := p.tighten(i); err != nil {
			return err
		}
	}
	return nil
}

func (p *ParetoMaximizer) tighten(i int) error {
	for j, v := range p.objectives {
		if j == i {
			p.point[j] = v.LB()
		} else {
			p.point[j] = v.UB()
		}
	}
	found, best := false, 0
	p.archive.each(func(a Pattern) bool {
		var lb int
		switch p.dominates(a.Measures, i) {
		case 0:
			return true
		case 1:
			lb = a.Measures[i]
		default:
			lb = a.Measures[i] + 1
		}
		if !found || lb > best {
			found, best = true, lb
		}
		return true
	})
	if !found {
		return nil
	}
	return p.objectives[i].UpdateLowerBound(best, p)
}

// dominates compares a with the current point: 0 when a does not dominate
// it, 1 when a is only greater on index i, 2 when a is greater elsewhere.
func (p *ParetoMaximizer) dominates(a []int, i int) int {
	res := 0
	for j, b := range p.point {
		if a[j] < b {
			return 0
		}
		if a[j] > b {
			if res == 0 {
				res = 1
			}
			if j != i {
				res = 2
			}
		}
	}
	return res
}
