package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagouryy/choco-mining/pkg/mining"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Zero(t, c.Workers)
	assert.Zero(t, c.TimeLimit)
	assert.Len(t, c.SearchOptions(), 3)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("CHOCOMINE_LOG_LEVEL", "debug")
	t.Setenv("CHOCOMINE_LOG_FORMAT", "json")
	t.Setenv("CHOCOMINE_WORKERS", "3")
	t.Setenv("CHOCOMINE_TIME_LIMIT", "1m30s")
	t.Setenv("CHOCOMINE_SOLUTION_LIMIT", "10")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 90*time.Second, c.TimeLimit)
	assert.Equal(t, 10, c.SolutionLimit)

	l := c.Logger()
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, l.Formatter)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"CHOCOMINE_WORKERS":    "-1",
		"CHOCOMINE_LOG_LEVEL":  "loud",
		"CHOCOMINE_LOG_FORMAT": "xml",
		"CHOCOMINE_NODE_LIMIT": "many",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

const batchDoc = `
defaults:
  task: closed
  min_freq: 2
  cover: dense
  time_limit: 30s
jobs:
  - name: toy-closed
    data: toy.dat
    no_classes: true
    extra: length,area
  - data: /data/classes.dat
    values: 1
    labels: classes.labels
    task: sky
    skyline: freq,max0,mean0
    consistency: dc
    heuristic: input
    exclude: [3]
    require: [4, 6]
`

func TestReadBatch(t *testing.T) {
	b, err := ReadBatch(strings.NewReader(batchDoc), "jobs")
	require.NoError(t, err)
	require.Len(t, b.Jobs, 2)

	toy := b.Jobs[0]
	assert.Equal(t, "toy-closed", toy.Name)
	assert.Equal(t, filepath.Join("jobs", "toy.dat"), toy.Data)
	assert.Equal(t, 30*time.Second, toy.TimeLimit)
	task, err := toy.MiningTask()
	require.NoError(t, err)
	assert.Equal(t, mining.TaskClosed, task.Kind)
	assert.Equal(t, 2, task.MinFreq)
	assert.Equal(t, mining.DenseCover, task.CoverKind)
	assert.Equal(t, []mining.Measure{mining.MeasureLength, mining.MeasureArea}, task.Extra)

	sky := b.Jobs[1]
	assert.Equal(t, "classes.dat", sky.Name)
	assert.Equal(t, "/data/classes.dat", sky.Data)
	assert.Equal(t, filepath.Join("jobs", "classes.labels"), sky.Labels)
	task, err = sky.MiningTask()
	require.NoError(t, err)
	assert.Equal(t, mining.TaskSkypatterns, task.Kind)
	assert.Equal(t, 2, task.MinFreq, "inherited")
	assert.Equal(t, mining.DC, task.Consistency)
	assert.Equal(t, mining.InputOrderHeuristic, task.Heuristic)
	assert.Equal(t, []mining.Measure{mining.MeasureFreq, mining.MaxOf(0), mining.MeanOf(0)}, task.Skyline)
	assert.Equal(t, []int{3}, task.ExcludedItems)
	assert.Equal(t, []int{4, 6}, task.RequiredItems)
}

func TestReadBatchErrors(t *testing.T) {
	tests := map[string]string{
		"no job":        "defaults:\n  task: closed\n",
		"unknown key":   "jobs:\n  - data: a.dat\n    minfreq: 2\n",
		"no dataset":    "jobs:\n  - task: closed\n",
		"bad top level": "job:\n  - data: a.dat\n",
		"not yaml":      "jobs: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadBatch(strings.NewReader(doc), "")
			assert.Error(t, err)
		})
	}

	_, err := LoadBatch("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestJobMiningTaskErrors(t *testing.T) {
	for _, j := range []Job{
		{Task: "rules"},
		{Measures: "freq,zz"},
		{Skyline: "q"},
		{Consistency: "ac"},
		{Cover: "roaring"},
		{Heuristic: "dom"},
	} {
		_, err := j.MiningTask()
		assert.Error(t, err, "%+v", j)
	}
}

func TestJobDatabase(t *testing.T) {
	b, err := LoadBatch("testdata/batch.yaml")
	require.NoError(t, err)
	require.Len(t, b.Jobs, 1)
	db, labels, err := b.Jobs[0].Database()
	require.NoError(t, err)
	assert.Equal(t, 5, db.NbItems())
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, labels)

	opts := b.Jobs[0].SearchOptions(&Config{})
	assert.Len(t, opts, 4, "job time limit appended")
}

func TestDatasetsCache(t *testing.T) {
	d, err := NewDatasets(1)
	require.NoError(t, err)
	toy := &Job{Data: "testdata/toy.dat", NoClasses: true}
	db1, _, err := d.Load(toy)
	require.NoError(t, err)
	db2, _, err := d.Load(toy)
	require.NoError(t, err)
	assert.Same(t, db1, db2)

	// another reading of the same file is another dataset
	withClasses := &Job{Data: "testdata/toy.dat"}
	db3, _, err := d.Load(withClasses)
	require.NoError(t, err)
	assert.NotSame(t, db1, db3)
	assert.Equal(t, 1, d.Len())

	_, _, err = d.Load(&Job{Data: "testdata/missing.dat"})
	assert.Error(t, err)
	_, err = NewDatasets(0)
	assert.Error(t, err)
}
