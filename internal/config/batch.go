package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/bagouryy/choco-mining/pkg/cp"
	"github.com/bagouryy/choco-mining/pkg/mining"
)

// Job is one mining query of a batch file. Measures, items and enums are
// written the way the command line accepts them.
type Job struct {
	Name string `yaml:"name"`

	// Data is the .dat dataset. Relative paths are resolved against the
	// directory of the batch file.
	Data      string `yaml:"data"`
	NoClasses bool   `yaml:"no_classes"`
	NbValues  int    `yaml:"values"`
	Labels    string `yaml:"labels"`

	Task     string `yaml:"task"`
	Measures string `yaml:"measures"`
	Skyline  string `yaml:"skyline"`
	Extra    string `yaml:"extra"`

	MinFreq    int     `yaml:"min_freq"`
	RelMinFreq float64 `yaml:"rel_min_freq"`
	MaxFreq    int     `yaml:"max_freq"`
	MinLength  int     `yaml:"min_length"`
	MaxLength  int     `yaml:"max_length"`
	Threshold  int     `yaml:"threshold"`
	JMax       float64 `yaml:"jmax"`
	Theta      int     `yaml:"theta"`

	Consistency string `yaml:"consistency"`
	Cover       string `yaml:"cover"`
	Heuristic   string `yaml:"heuristic"`

	Exclude      []int `yaml:"exclude"`
	Require      []int `yaml:"require"`
	ItemsMaxFreq int   `yaml:"items_max_freq"`

	SaveTransactions bool `yaml:"save_transactions"`

	TimeLimit     time.Duration `yaml:"time_limit"`
	SolutionLimit int           `yaml:"solution_limit"`
}

// Batch is a list of jobs sharing defaults.
type Batch struct {
	Jobs []Job
}

type batchFile struct {
	Defaults yaml.MapSlice   `yaml:"defaults"`
	Jobs     []yaml.MapSlice `yaml:"jobs"`
}

// ReadBatch decodes a batch document. Every job starts from the defaults
// section and overrides the keys it sets. Relative paths are resolved
// against dir.
func ReadBatch(r io.Reader, dir string) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading batch")
	}
	var f batchFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, errors.Wrap(err, "decoding batch")
	}
	if len(f.Jobs) == 0 {
		return nil, errors.New("batch: no job")
	}
	var defaults Job
	if err := remarshal(f.Defaults, &defaults); err != nil {
		return nil, errors.Wrap(err, "batch defaults")
	}
	b := &Batch{Jobs: make([]Job, len(f.Jobs))}
	for i, raw := range f.Jobs {
		j := defaults
		if err := remarshal(raw, &j); err != nil {
			return nil, errors.Wrapf(err, "batch job %d", i)
		}
		if j.Name == "" {
			j.Name = filepath.Base(j.Data)
		}
		if j.Data == "" {
			return nil, errors.Errorf("batch job %d (%s): no dataset", i, j.Name)
		}
		j.Data = resolve(dir, j.Data)
		if j.Labels != "" {
			j.Labels = resolve(dir, j.Labels)
		}
		b.Jobs[i] = j
	}
	return b, nil
}

// LoadBatch reads a batch file.
func LoadBatch(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening batch")
	}
	defer f.Close()
	b, err := ReadBatch(f, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return b, nil
}

func remarshal(in yaml.MapSlice, out *Job) error {
	if in == nil {
		return nil
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, out)
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// MiningTask converts the job into a mining.Task.
func (j *Job) MiningTask() (mining.Task, error) {
	t := mining.Task{
		MinFreq:          j.MinFreq,
		RelMinFreq:       j.RelMinFreq,
		MaxFreq:          j.MaxFreq,
		MinLength:        j.MinLength,
		MaxLength:        j.MaxLength,
		Threshold:        j.Threshold,
		JMax:             j.JMax,
		Theta:            j.Theta,
		ExcludedItems:    j.Exclude,
		RequiredItems:    j.Require,
		ItemsMaxFreq:     j.ItemsMaxFreq,
		SaveTransactions: j.SaveTransactions,
	}
	var err error
	if j.Task != "" {
		if t.Kind, err = mining.ParseTaskKind(j.Task); err != nil {
			return t, err
		}
	}
	if t.Measures, err = mining.ParseMeasures(j.Measures); err != nil {
		return t, errors.Wrap(err, "measures")
	}
	if t.Skyline, err = mining.ParseMeasures(j.Skyline); err != nil {
		return t, errors.Wrap(err, "skyline")
	}
	if t.Extra, err = mining.ParseMeasures(j.Extra); err != nil {
		return t, errors.Wrap(err, "extra")
	}
	if j.Consistency != "" {
		if t.Consistency, err = mining.ParseConsistency(j.Consistency); err != nil {
			return t, err
		}
	}
	if j.Cover != "" {
		if t.CoverKind, err = mining.ParseCoverKind(j.Cover); err != nil {
			return t, err
		}
	}
	if t.Heuristic, err = mining.ParseHeuristic(j.Heuristic); err != nil {
		return t, err
	}
	return t, nil
}

// Database reads the dataset of the job and its labels, if any.
func (j *Job) Database() (*mining.Database, []string, error) {
	db, err := mining.ReadDatFile(j.Data, mining.ReadOptions{NoClasses: j.NoClasses, NbValues: j.NbValues})
	if err != nil {
		return nil, nil, err
	}
	if j.Labels == "" {
		return db, nil, nil
	}
	labels, err := mining.ReadLabelsFile(j.Labels)
	if err != nil {
		return nil, nil, err
	}
	return db, labels, nil
}

// SearchOptions returns the limits of the job, falling back on c.
func (j *Job) SearchOptions(c *Config) []cp.Option {
	opts := c.SearchOptions()
	if j.TimeLimit > 0 {
		opts = append(opts, cp.WithTimeLimit(j.TimeLimit))
	}
	if j.SolutionLimit > 0 {
		opts = append(opts, cp.WithSolutionLimit(j.SolutionLimit))
	}
	return opts
}
