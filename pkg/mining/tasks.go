package mining

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// TaskKind selects the family of patterns a Task mines.
type TaskKind int

const (
	// TaskClosed mines the frequent patterns closed for Task.Measures.
	TaskClosed TaskKind = iota
	// TaskFrequent mines every frequent pattern.
	TaskFrequent
	// TaskGenerators mines the frequent generators.
	TaskGenerators
	// TaskMaximal mines the maximal frequent itemsets for Task.Threshold.
	TaskMaximal
	// TaskMinimal mines the minimal infrequent itemsets for Task.Threshold.
	TaskMinimal
	// TaskDiverse mines a diverse set of closed frequent patterns.
	TaskDiverse
	// TaskSkypatterns mines the Pareto front of Task.Skyline.
	TaskSkypatterns
)

var taskNames = map[TaskKind]string{
	TaskClosed:      "closed",
	TaskFrequent:    "frequent",
	TaskGenerators:  "generators",
	TaskMaximal:     "maximal",
	TaskMinimal:     "minimal",
	TaskDiverse:     "diverse",
	TaskSkypatterns: "skypatterns",
}

func (k TaskKind) String() string {
	if n, ok := taskNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseTaskKind parses a task name. "mfi", "mii" and "sky" are accepted as
// aliases of maximal, minimal and skypatterns.
func ParseTaskKind(s string) (TaskKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "mfi":
		return TaskMaximal, nil
	case "mii":
		return TaskMinimal, nil
	case "sky":
		return TaskSkypatterns, nil
	}
	for k, n := range taskNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown task %q", s)
}

// Heuristic selects the branching variable of a mining search.
type Heuristic int

const (
	// MinCovHeuristic branches on the item giving the smallest cover.
	MinCovHeuristic Heuristic = iota
	// InputOrderHeuristic branches on items in index order.
	InputOrderHeuristic
)

func (h Heuristic) String() string {
	if h == InputOrderHeuristic {
		return "input"
	}
	return "mincov"
}

// ParseHeuristic parses "mincov" or "input".
func ParseHeuristic(s string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mincov":
		return MinCovHeuristic, nil
	case "input", "lex":
		return InputOrderHeuristic, nil
	}
	return 0, errors.Errorf("unknown heuristic %q", s)
}

// Task describes a mining query.
//
// Items are designated by their labels. Zero values select the defaults:
// a minimum frequency and length of 1, no maximum, WC consistency, sparse
// covers and the MinCov heuristic.
type Task struct {
	Kind TaskKind

	// Measures the patterns of TaskClosed are closed for (default freq).
	Measures []Measure
	// Skyline holds the objectives of TaskSkypatterns, all maximised.
	Skyline []Measure
	// Extra measures are reported with each pattern.
	Extra []Measure

	MinFreq    int
	RelMinFreq float64
	MaxFreq    int
	MinLength  int
	MaxLength  int

	// Threshold is the frequency border of TaskMaximal and TaskMinimal.
	Threshold int

	// JMax bounds the Jaccard index between two patterns of TaskDiverse.
	JMax float64
	// Theta is the minimum frequency of the patterns of TaskDiverse and the
	// frequency the diversity bound is computed for (default: the minimum
	// frequency). A Theta above the minimum frequency raises it.
	Theta int

	Consistency Consistency
	CoverKind   CoverKind
	Heuristic   Heuristic

	ExcludedItems []int
	// RequiredItems makes at least one of the items mandatory.
	RequiredItems []int
	// ItemsMaxFreq makes mandatory at least one item whose frequency is at
	// most ItemsMaxFreq.
	ItemsMaxFreq int

	SaveTransactions bool
}

// Result holds the patterns of a mining search.
type Result struct {
	Patterns []Pattern
	// MeasureIDs names the measures of every pattern, in order.
	MeasureIDs []string
	// ClosureIDs names the measures the patterns are closed for.
	ClosureIDs []string
	Stats      *cp.SolverStats
}

// minFreq returns the effective minimum frequency on db.
func (t *Task) minFreq(db *Database) int {
	f := t.MinFreq
	if t.RelMinFreq > 0 {
		f = int(float64(db.NbTransactions()) * t.RelMinFreq)
	}
	if f == 0 && t.Kind != TaskMinimal {
		f = 1
	}
	return f
}

// theta returns the frequency the diversity bound holds for.
func (t *Task) theta(db *Database) int {
	return max(t.Theta, t.minFreq(db))
}

// reported returns the measures recorded for each pattern.
func (t *Task) reported() []Measure {
	var ms []Measure
	switch t.Kind {
	case TaskClosed:
		ms = t.closure()
	case TaskSkypatterns:
		ms = append(ms, t.Skyline...)
	default:
		ms = []Measure{MeasureFreq}
	}
	return Dedup(append(ms, t.Extra...))
}

// closure returns the closure measures of the task.
func (t *Task) closure() []Measure {
	switch t.Kind {
	case TaskClosed:
		if len(t.Measures) == 0 {
			return []Measure{MeasureFreq}
		}
		return Dedup(t.Measures)
	case TaskSkypatterns:
		return ClosureMeasures(t.Skyline)
	case TaskMaximal, TaskDiverse:
		return []Measure{MeasureFreq}
	}
	return nil
}

// Validate checks the task against db.
func (t *Task) Validate(db *Database) error {
	if db == nil {
		return errors.New("task: nil database")
	}
	if _, ok := taskNames[t.Kind]; !ok {
		return errors.Errorf("task: unknown kind %d", int(t.Kind))
	}
	switch {
	case t.MinFreq < 0, t.MaxFreq < 0:
		return errors.Errorf("task: negative frequency bound [%d,%d]", t.MinFreq, t.MaxFreq)
	case t.RelMinFreq < 0 || t.RelMinFreq > 1:
		return errors.Errorf("task: relative minimum frequency %v not in [0,1]", t.RelMinFreq)
	case t.MinLength < 0, t.MaxLength < 0:
		return errors.Errorf("task: negative length bound [%d,%d]", t.MinLength, t.MaxLength)
	case t.MaxLength > 0 && t.MaxLength < t.MinLength:
		return errors.Errorf("task: maximum length %d below minimum length %d", t.MaxLength, t.MinLength)
	case t.ItemsMaxFreq < 0:
		return errors.Errorf("task: negative item frequency bound %d", t.ItemsMaxFreq)
	}
	switch t.Kind {
	case TaskMaximal, TaskMinimal:
		if t.Threshold <= 0 {
			return errors.Errorf("task %s: threshold must be positive, got %d", t.Kind, t.Threshold)
		}
	case TaskDiverse:
		if t.JMax < 0 || t.JMax > 1 {
			return errors.Errorf("task %s: jmax %v not in [0,1]", t.Kind, t.JMax)
		}
		if t.Theta < 0 {
			return errors.Errorf("task %s: negative theta %d", t.Kind, t.Theta)
		}
	case TaskSkypatterns:
		if len(t.Skyline) == 0 {
			return errors.Errorf("task %s: no skyline measure", t.Kind)
		}
		if len(Dedup(t.Skyline)) != len(t.Skyline) {
			return errors.Errorf("task %s: repeated skyline measure in %v", t.Kind, MeasureIDs(t.Skyline))
		}
	}
	for _, m := range append(append(t.reported(), t.closure()...), t.Measures...) {
		if err := checkMeasure(db, m); err != nil {
			return errors.Wrap(err, "task")
		}
	}
	for _, label := range append(append([]int{}, t.ExcludedItems...), t.RequiredItems...) {
		idx, ok := db.IndexOf(label)
		if !ok {
			return errors.Errorf("task: unknown item %d", label)
		}
		if idx < db.NbClass() {
			return errors.Errorf("task: item %d is a class", label)
		}
	}
	return nil
}

func checkMeasure(db *Database, m Measure) error {
	if m.Kind == Freq1 && db.NbClass() == 0 {
		return errors.Errorf("measure %s needs a database with classes", m)
	}
	if !m.IsAttribute() {
		return nil
	}
	if m.Num < 0 || m.Num >= db.NbValues() {
		return errors.Errorf("measure %s: database has %d attributes", m, db.NbValues())
	}
	for _, v := range db.Values()[m.Num] {
		if v < 0 {
			return errors.Errorf("measure %s: negative attribute value %d", m, v)
		}
	}
	return nil
}

// Mine builds the constraint model of task over db, runs the search and
// returns the patterns found. opts configure the search limits and logger.
func Mine(ctx context.Context, db *Database, task Task, opts ...cp.Option) (*Result, error) {
	if err := task.Validate(db); err != nil {
		return nil, err
	}
	m, err := buildModel(db, &task)
	if err != nil {
		return nil, errors.Wrapf(err, "task %s", task.Kind)
	}
	log.WithFields(log.Fields{
		"task":         task.Kind,
		"items":        db.NbItems(),
		"transactions": db.NbTransactions(),
		"propagators":  len(m.store.Propagators()),
	}).Debug("mining model built")

	opts = append([]cp.Option{cp.WithSearch(m.selector, cp.ValueMin)}, opts...)
	if task.Kind == TaskDiverse {
		// the limit counts the patterns joining the history, not the leaves
		m.limit = cp.SolutionLimit(opts...)
		opts = append(opts, cp.WithSolutionLimit(0))
	}
	stats, err := m.store.Solve(ctx, opts...)
	res := &Result{
		Patterns:   m.archive.Patterns(),
		MeasureIDs: MeasureIDs(m.reported),
		ClosureIDs: MeasureIDs(task.closure()),
		Stats:      stats,
	}
	if err != nil {
		return res, errors.Wrapf(err, "task %s", task.Kind)
	}
	return res, nil
}

// model is a mining task turned into a cp.Store.
type model struct {
	db       *Database
	task     *Task
	store    *cp.Store
	items    []*cp.IntVar
	vars     map[Measure]*cp.IntVar
	reported []Measure
	archive  *Archive
	selector cp.VariableSelector
	// limit is the number of diverse patterns ending the search (0: none).
	limit int
}

func buildModel(db *Database, task *Task) (*model, error) {
	s := cp.NewStore()
	m := &model{
		db:       db,
		task:     task,
		store:    s,
		items:    s.NewBoolVars("item", db.NbItems()),
		vars:     make(map[Measure]*cp.IntVar),
		reported: task.reported(),
	}
	steps := []func() error{
		m.itemConstraints,
		m.frequencyVar,
		m.lengthVar,
		m.measureVars,
		m.taskConstraints,
		m.searchConfig,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *model) itemConstraints() error {
	for i := 0; i < m.db.NbClass(); i++ {
		if err := m.items[i].SetToFalse(nil); err != nil {
			return err
		}
	}
	for _, label := range m.task.ExcludedItems {
		idx, _ := m.db.IndexOf(label)
		if err := m.items[idx].SetToFalse(nil); err != nil {
			return errors.Wrapf(err, "excluding item %d", label)
		}
	}
	if len(m.task.RequiredItems) > 0 {
		req := make([]*cp.IntVar, len(m.task.RequiredItems))
		for k, label := range m.task.RequiredItems {
			idx, _ := m.db.IndexOf(label)
			req[k] = m.items[idx]
		}
		if err := m.atLeastOne("required", req); err != nil {
			return err
		}
	}
	if m.task.ItemsMaxFreq > 0 {
		var rare []*cp.IntVar
		for i, f := range m.db.ItemFrequency() {
			if i >= m.db.NbClass() && f <= m.task.ItemsMaxFreq {
				rare = append(rare, m.items[i])
			}
		}
		if len(rare) == 0 {
			return errors.Errorf("no item with frequency at most %d", m.task.ItemsMaxFreq)
		}
		if err := m.atLeastOne("rare", rare); err != nil {
			return err
		}
	}
	return nil
}

func (m *model) atLeastOne(name string, bools []*cp.IntVar) error {
	n := m.store.NewIntVar(name, 1, len(bools))
	c, err := cp.NewCount(bools, n)
	if err != nil {
		return err
	}
	return m.store.Post(c)
}

func (m *model) frequencyVar() error {
	lb, ub := m.task.minFreq(m.db), m.db.NbTransactions()
	if m.task.MaxFreq > 0 {
		ub = min(ub, m.task.MaxFreq)
	}
	switch m.task.Kind {
	case TaskMaximal:
		lb = max(lb, m.task.Threshold)
	case TaskMinimal:
		ub = min(ub, m.task.Threshold-1)
	case TaskDiverse:
		lb = max(lb, m.task.theta(m.db))
	}
	freq := m.store.NewIntVar(MeasureFreq.ID(), lb, ub)
	p, err := NewCoverSize(m.store, m.db, freq, m.items, WithCoverKind(m.task.CoverKind))
	if err != nil {
		return err
	}
	m.vars[MeasureFreq] = freq
	return m.store.Post(p)
}

func (m *model) lengthVar() error {
	lb, ub := max(m.task.MinLength, 1), m.db.NbItems()
	if m.task.MaxLength > 0 {
		ub = min(ub, m.task.MaxLength)
	}
	length := m.store.NewIntVar(MeasureLength.ID(), lb, ub)
	c, err := cp.NewCount(m.items, length)
	if err != nil {
		return err
	}
	m.vars[MeasureLength] = length
	return m.store.Post(c)
}

func (m *model) measureVars() error {
	for _, ms := range m.reported {
		if _, err := m.measureVar(ms); err != nil {
			return err
		}
	}
	return nil
}

// measureVar returns the variable of ms, creating it with the propagators
// linking it to the items.
func (m *model) measureVar(ms Measure) (*cp.IntVar, error) {
	if v, ok := m.vars[ms]; ok {
		return v, nil
	}
	s := m.store
	n := m.db.NbTransactions()
	var (
		v   *cp.IntVar
		p   cp.Propagator
		err error
	)
	switch ms.Kind {
	case Freq1:
		v = s.NewIntVar(ms.ID(), 0, m.db.ClassCount()[0])
		p, err = NewCoverSize(s, m.db, v, m.items, WithCoverKind(m.task.CoverKind), WithClassCover())
	case Area:
		v = s.NewIntVar(ms.ID(), 0, n*m.db.NbItems())
		p, err = cp.NewTimes(m.vars[MeasureFreq], m.vars[MeasureLength], v)
	case MaxFreq:
		v = s.NewIntVar(ms.ID(), 0, n)
		p, err = cp.NewMaxOfSelected(m.items, m.db.ItemFrequency(), v, 0)
	case MinValue:
		values := m.db.Values()[ms.Num]
		top := maxValue(values)
		v = s.NewIntVar(ms.ID(), 0, top)
		p, err = cp.NewMinOfSelected(m.items, values, v, top)
	case MaxValue:
		values := m.db.Values()[ms.Num]
		v = s.NewIntVar(ms.ID(), 0, maxValue(values))
		p, err = cp.NewMaxOfSelected(m.items, values, v, 0)
	case MeanValue:
		lo, lerr := m.measureVar(MinOf(ms.Num))
		if lerr != nil {
			return nil, lerr
		}
		hi, herr := m.measureVar(MaxOf(ms.Num))
		if herr != nil {
			return nil, herr
		}
		v = s.NewIntVar(ms.ID(), 0, maxValue(m.db.Values()[ms.Num]))
		p, err = cp.NewAverage(lo, hi, v)
	default:
		return nil, errors.Errorf("no variable for measure %s", ms)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Post(p); err != nil {
		return nil, err
	}
	m.vars[ms] = v
	return v, nil
}

func maxValue(values []int) int {
	top := 0
	for _, v := range values {
		top = max(top, v)
	}
	return top
}

func (m *model) taskConstraints() error {
	s, db, t := m.store, m.db, m.task
	var props []cp.Propagator
	add := func(p cp.Propagator, err error) error {
		if err != nil {
			return err
		}
		props = append(props, p)
		return nil
	}
	m.archive = NewArchive(0)
	switch t.Kind {
	case TaskClosed, TaskDiverse:
		if err := add(NewAdequateClosure(s, db, t.closure(), m.items, t.Consistency, t.CoverKind)); err != nil {
			return err
		}
	case TaskGenerators:
		if err := add(NewGenerator(s, db, m.items, t.CoverKind)); err != nil {
			return err
		}
	case TaskMaximal:
		if err := add(NewFrequentSubs(db, t.Threshold, m.items)); err != nil {
			return err
		}
		if err := add(NewInfrequentSupers(db, t.Threshold, m.items)); err != nil {
			return err
		}
		if err := add(NewCoverClosure(s, db, m.items, t.CoverKind)); err != nil {
			return err
		}
	case TaskMinimal:
		if err := add(NewFrequentSubs(db, t.Threshold, m.items)); err != nil {
			return err
		}
		if err := add(NewInfrequentSupers(db, t.Threshold, m.items)); err != nil {
			return err
		}
		if err := add(NewGenerator(s, db, m.items, t.CoverKind)); err != nil {
			return err
		}
	case TaskSkypatterns:
		if cm := t.closure(); len(cm) > 0 {
			if err := add(NewAdequateClosure(s, db, cm, m.items, t.Consistency, t.CoverKind)); err != nil {
				return err
			}
		}
		m.archive = NewArchive(len(t.Skyline))
		objectives := make([]*cp.IntVar, len(t.Skyline))
		for i, ms := range t.Skyline {
			objectives[i] = m.vars[ms]
		}
		if err := add(NewParetoMaximizer(objectives, m.archive)); err != nil {
			return err
		}
	}
	for _, p := range props {
		if err := s.Post(p); err != nil {
			return err
		}
	}

	measures := make([]*cp.IntVar, len(m.reported))
	for i, ms := range m.reported {
		measures[i] = m.vars[ms]
	}
	pm := NewPatternMonitor(db, m.items, measures, m.archive)
	pm.SaveTransactions(t.SaveTransactions)
	if t.Kind != TaskDiverse {
		s.AddMonitor(pm)
		return nil
	}

	o, err := NewOverlap(db, m.items, t.JMax, t.theta(db))
	if err != nil {
		return err
	}
	if err := s.Post(o); err != nil {
		return err
	}
	// only the solutions joining the history are reported
	s.AddMonitor(cp.OnSolutionFunc(func() error {
		n := len(o.Itemsets())
		if err := o.OnSolution(); err != nil {
			return err
		}
		if len(o.Itemsets()) == n {
			return nil
		}
		if err := pm.OnSolution(); err != nil {
			return err
		}
		if m.limit > 0 && len(o.Itemsets()) >= m.limit {
			return cp.ErrStopSearch
		}
		return nil
	}))
	return nil
}

func (m *model) searchConfig() error {
	if m.task.Heuristic == InputOrderHeuristic {
		m.selector = cp.InputOrder(m.items)
		return nil
	}
	h, err := NewMinCov(m.store, m.db, m.items, m.task.CoverKind)
	if err != nil {
		return err
	}
	m.selector = h
	return nil
}
