package cp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Propagator filters variable domains. Propagate is called by the store's
// fixpoint loop whenever a watched variable changes and must either leave
// the domains consistent with its constraint or return ErrInconsistent.
// All state a propagator keeps across calls must live in reversible cells.
type Propagator interface {
	// Variables returns the variables whose changes wake the propagator.
	Variables() []*IntVar
	// Propagate filters domains. A nil error means no contradiction.
	Propagate() error
	// Type returns a short name used in logs and errors.
	Type() string
}

// EventMasker is implemented by propagators that only react to some events.
type EventMasker interface {
	EventMask() Event
}

// NodePropagator is implemented by propagators whose filtering depends on
// state changed outside the fixpoint (solution histories, archives). When
// PropagateOnNode returns true they are scheduled at every search decision.
type NodePropagator interface {
	PropagateOnNode() bool
}

// propHandle is the scheduling record of a posted propagator.
type propHandle struct {
	p      Propagator
	id     int
	mask   Event
	node   bool
	queued bool
}

// Errors returned by the engine.
var (
	// ErrInconsistent signals a contradiction: the current node has no solution.
	ErrInconsistent = errors.New("inconsistent")
	// ErrInvalidArgument reports a misuse of the engine API.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSearchLimitReached indicates the node limit stopped the search.
	ErrSearchLimitReached = errors.New("search limit reached")
	// ErrStopSearch may be returned by a SolutionMonitor to end the search.
	ErrStopSearch = errors.New("search stopped")
)

// IsContradiction reports whether err signals a contradiction.
func IsContradiction(err error) bool { return errors.Is(err, ErrInconsistent) }

// Store holds variables and propagators and runs propagation and search.
//
// Typical usage:
//
//	s := NewStore()
//	x := s.NewBoolVars("x", n)
//	_ = s.Post(myPropagator)
//	s.AddMonitor(monitor)
//	stats, err := s.Solve(ctx)
type Store struct {
	env      *Env
	vars     []*IntVar
	props    []*propHandle
	byProp   map[Propagator]*propHandle
	queue    []*propHandle
	head     int
	monitors []SolutionMonitor
	solving  bool
	stats    *SolverMonitor
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		env:    NewEnv(),
		vars:   make([]*IntVar, 0, 64),
		byProp: make(map[Propagator]*propHandle),
		queue:  make([]*propHandle, 0, 64),
		stats:  NewSolverMonitor(),
	}
}

// Env returns the reversible environment of the store.
func (s *Store) Env() *Env { return s.env }

// Vars returns all variables in creation order.
func (s *Store) Vars() []*IntVar { return s.vars }

// Propagators returns the posted propagators in posting order.
func (s *Store) Propagators() []Propagator {
	out := make([]Propagator, len(s.props))
	for i, h := range s.props {
		out[i] = h.p
	}
	return out
}

// NewIntVar creates a variable with domain [lb, ub]. An empty interval is
// reported by Validate.
func (s *Store) NewIntVar(name string, lb, ub int) *IntVar {
	v := &IntVar{
		id:    len(s.vars),
		name:  name,
		store: s,
		lo:    s.env.NewInt(lb),
		hi:    s.env.NewInt(ub),
	}
	if name == "" {
		v.name = fmt.Sprintf("v%d", v.id)
	}
	s.vars = append(s.vars, v)
	return v
}

// NewBoolVar creates a variable with domain [0, 1].
func (s *Store) NewBoolVar(name string) *IntVar { return s.NewIntVar(name, 0, 1) }

// NewBoolVars creates n boolean variables named prefix[i].
func (s *Store) NewBoolVars(prefix string, n int) []*IntVar {
	vars := make([]*IntVar, n)
	for i := range vars {
		vars[i] = s.NewBoolVar(fmt.Sprintf("%s[%d]", prefix, i))
	}
	return vars
}

// NewConstant creates a variable fixed to val.
func (s *Store) NewConstant(val int) *IntVar {
	return s.NewIntVar(fmt.Sprintf("cst(%d)", val), val, val)
}

// Post registers p and schedules it for the next propagation.
func (s *Store) Post(p Propagator) error {
	if p == nil {
		return errors.Wrap(ErrInvalidArgument, "Post: nil propagator")
	}
	if s.solving {
		return errors.Wrapf(ErrInvalidArgument, "Post: cannot post %s during search", p.Type())
	}
	if _, ok := s.byProp[p]; ok {
		return errors.Wrapf(ErrInvalidArgument, "Post: %s already posted", p.Type())
	}
	for _, v := range p.Variables() {
		if v == nil || v.store != s {
			return errors.Wrapf(ErrInvalidArgument, "Post: %s uses a variable from another store", p.Type())
		}
	}
	h := &propHandle{p: p, id: len(s.props), mask: EventAll}
	if m, ok := p.(EventMasker); ok {
		h.mask = m.EventMask()
	}
	if n, ok := p.(NodePropagator); ok {
		h.node = n.PropagateOnNode()
	}
	seen := make(map[*IntVar]bool)
	for _, v := range p.Variables() {
		if seen[v] {
			continue
		}
		seen[v] = true
		v.watchers = append(v.watchers, h)
	}
	s.props = append(s.props, h)
	s.byProp[p] = h
	s.stats.RecordConstraint()
	s.enqueue(h)
	return nil
}

// AddMonitor registers a solution monitor.
func (s *Store) AddMonitor(m SolutionMonitor) {
	if m != nil {
		s.monitors = append(s.monitors, m)
	}
}

// Validate checks the model before search.
func (s *Store) Validate() error {
	for _, v := range s.vars {
		if v.LB() > v.UB() {
			return errors.Errorf("variable %s has an empty domain [%d,%d]", v.name, v.LB(), v.UB())
		}
	}
	return nil
}

func (s *Store) enqueue(h *propHandle) {
	if h.queued {
		return
	}
	h.queued = true
	s.queue = append(s.queue, h)
}

// notify schedules every watcher of v interested in evt, except cause.
func (s *Store) notify(v *IntVar, evt Event, cause Propagator) {
	for _, h := range v.watchers {
		if h.mask&evt == 0 || (cause != nil && h.p == cause) {
			continue
		}
		s.enqueue(h)
	}
}

// Schedule queues p for the next call to Propagate.
func (s *Store) Schedule(p Propagator) {
	if h, ok := s.byProp[p]; ok {
		s.enqueue(h)
	}
}

func (s *Store) scheduleAll() {
	for _, h := range s.props {
		s.enqueue(h)
	}
}

func (s *Store) scheduleNodePropagators() {
	for _, h := range s.props {
		if h.node {
			s.enqueue(h)
		}
	}
}

func (s *Store) clearQueue() {
	for _, h := range s.queue[s.head:] {
		h.queued = false
	}
	s.queue = s.queue[:0]
	s.head = 0
}

// Propagate runs scheduled propagators until no domain changes. On
// contradiction the queue is emptied and ErrInconsistent is returned.
func (s *Store) Propagate() error {
	s.stats.StartPropagation()
	defer s.stats.EndPropagation()
	for s.head < len(s.queue) {
		h := s.queue[s.head]
		s.head++
		h.queued = false
		if err := h.p.Propagate(); err != nil {
			s.clearQueue()
			return err
		}
	}
	s.queue = s.queue[:0]
	s.head = 0
	s.stats.RecordTrailSize(s.env.TrailSize())
	return nil
}

// PropagateAll schedules every propagator and runs the fixpoint.
func (s *Store) PropagateAll() error {
	s.scheduleAll()
	return s.Propagate()
}

// Stats returns a snapshot of the solver statistics.
func (s *Store) Stats() *SolverStats { return s.stats.GetStats() }
