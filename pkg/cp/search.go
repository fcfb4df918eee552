package cp

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// VariableSelector picks the next variable to branch on. It returns nil
// when it has no uninstantiated variable left.
type VariableSelector interface {
	SelectVariable() *IntVar
}

// ValueSelector picks the value tried first for v. The value must be one of
// the bounds of v so that its refutation can be expressed on bounds.
type ValueSelector interface {
	SelectValue(v *IntVar) int
}

// ValueSelectorFunc adapts a function to ValueSelector.
type ValueSelectorFunc func(v *IntVar) int

// SelectValue calls f.
func (f ValueSelectorFunc) SelectValue(v *IntVar) int { return f(v) }

var (
	// ValueMin tries the lower bound first (false first for booleans).
	ValueMin ValueSelector = ValueSelectorFunc(func(v *IntVar) int { return v.LB() })
	// ValueMax tries the upper bound first (true first for booleans).
	ValueMax ValueSelector = ValueSelectorFunc(func(v *IntVar) int { return v.UB() })
)

type inputOrder struct{ vars []*IntVar }

// InputOrder selects the first uninstantiated variable of vars.
func InputOrder(vars []*IntVar) VariableSelector { return &inputOrder{vars: vars} }

func (s *inputOrder) SelectVariable() *IntVar {
	for _, v := range s.vars {
		if !v.IsInstantiated() {
			return v
		}
	}
	return nil
}

type firstFail struct{ vars []*IntVar }

// FirstFail selects the uninstantiated variable of vars with the smallest
// domain, breaking ties by position.
func FirstFail(vars []*IntVar) VariableSelector { return &firstFail{vars: vars} }

func (s *firstFail) SelectVariable() *IntVar {
	var best *IntVar
	for _, v := range s.vars {
		if v.IsInstantiated() {
			continue
		}
		if best == nil || v.Size() < best.Size() {
			best = v
		}
	}
	return best
}

// Option configures Solve.
type Option func(*solveConfig)

type solveConfig struct {
	varSel        VariableSelector
	valSel        ValueSelector
	solutionLimit int
	nodeLimit     int
	timeLimit     time.Duration
	logger        log.FieldLogger
}

// WithSearch sets the branching strategy. Variables the selector leaves
// uninstantiated are branched on afterwards in creation order.
func WithSearch(vars VariableSelector, values ValueSelector) Option {
	return func(c *solveConfig) {
		c.varSel = vars
		c.valSel = values
	}
}

// WithSolutionLimit stops the search after n solutions (n <= 0: no limit).
func WithSolutionLimit(n int) Option {
	return func(c *solveConfig) { c.solutionLimit = n }
}

// SolutionLimit returns the solution limit set by opts, 0 when there is none.
func SolutionLimit(opts ...Option) int {
	cfg := &solveConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	return max(cfg.solutionLimit, 0)
}

// WithNodeLimit stops the search after n decisions with ErrSearchLimitReached.
func WithNodeLimit(n int) Option {
	return func(c *solveConfig) { c.nodeLimit = n }
}

// WithTimeLimit bounds the search time; when reached Solve returns
// context.DeadlineExceeded.
func WithTimeLimit(d time.Duration) Option {
	return func(c *solveConfig) { c.timeLimit = d }
}

// WithLogger sets the logger used for search progress.
func WithLogger(l log.FieldLogger) Option {
	return func(c *solveConfig) { c.logger = l }
}

// decision is one branching point: var = val, refuted into var != val.
type decision struct {
	v       *IntVar
	val     int
	refuted bool
}

// errLeaf drives the backtracking loop after a solution has been recorded.
var errLeaf = errors.New("leaf")

// Solve explores the search tree depth-first and calls every registered
// SolutionMonitor at each feasible leaf. The store is restored to its
// pre-search state before Solve returns. An infeasible model is not an
// error: Solve returns with zero solutions.
func (s *Store) Solve(ctx context.Context, opts ...Option) (*SolverStats, error) {
	cfg := &solveConfig{valSel: ValueMin}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = log.StandardLogger()
	}
	if cfg.valSel == nil {
		cfg.valSel = ValueMin
	}
	if cfg.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeLimit)
		defer cancel()
	}
	if err := s.Validate(); err != nil {
		return s.Stats(), err
	}

	s.solving = true
	s.env.PushWorld()
	defer func() {
		s.clearQueue()
		for s.env.WorldIndex() > 0 {
			s.env.PopWorld()
		}
		s.solving = false
		s.stats.FinishSearch()
	}()
	s.stats.StartSearch()
	logger := cfg.logger.WithFields(log.Fields{
		"vars":         len(s.vars),
		"propagators":  len(s.props),
		"solutionsMax": cfg.solutionLimit,
	})
	logger.Debug("search started")

	err := s.search(ctx, cfg)
	stats := s.Stats()
	logger.WithFields(log.Fields{
		"nodes":     stats.NodesExplored,
		"fails":     stats.Fails,
		"solutions": stats.SolutionsFound,
	}).Debug("search finished")
	if errors.Is(err, ErrStopSearch) {
		err = nil
	}
	return s.Stats(), err
}

func (s *Store) search(ctx context.Context, cfg *solveConfig) error {
	s.scheduleAll()
	if err := s.Propagate(); err != nil {
		if IsContradiction(err) {
			s.stats.RecordFail()
			return nil
		}
		return err
	}

	stack := make([]*decision, 0, len(s.vars))
	solutions := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		v := s.selectVariable(cfg.varSel)
		if v == nil {
			solutions++
			s.stats.RecordSolution()
			for _, m := range s.monitors {
				if merr := m.OnSolution(); merr != nil {
					return merr
				}
			}
			if cfg.solutionLimit > 0 && solutions >= cfg.solutionLimit {
				return nil
			}
			err = errLeaf
		} else {
			if cfg.nodeLimit > 0 && s.stats.GetStats().NodesExplored >= cfg.nodeLimit {
				return ErrSearchLimitReached
			}
			d := &decision{v: v, val: cfg.valSel.SelectValue(v)}
			s.env.PushWorld()
			stack = append(stack, d)
			s.stats.RecordNode()
			s.stats.RecordDepth(len(stack))
			err = s.apply(d)
		}

		for err != nil {
			if err != errLeaf {
				if !IsContradiction(err) {
					return err
				}
				s.stats.RecordFail()
			}
			for len(stack) > 0 && stack[len(stack)-1].refuted {
				s.env.PopWorld()
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return nil
			}
			d := stack[len(stack)-1]
			s.env.PopWorld()
			s.env.PushWorld()
			d.refuted = true
			s.stats.RecordBacktrack()
			err = s.apply(d)
		}
	}
}

// apply enforces d (or its refutation) and propagates.
func (s *Store) apply(d *decision) error {
	var err error
	if d.refuted {
		err = d.v.removeValue(d.val, nil)
	} else {
		err = d.v.InstantiateTo(d.val, nil)
	}
	if err != nil {
		s.clearQueue()
		return err
	}
	s.scheduleNodePropagators()
	return s.Propagate()
}

func (s *Store) selectVariable(sel VariableSelector) *IntVar {
	if sel != nil {
		if v := sel.SelectVariable(); v != nil {
			return v
		}
	}
	for _, v := range s.vars {
		if !v.IsInstantiated() {
			return v
		}
	}
	return nil
}
