package config

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/bagouryy/choco-mining/pkg/mining"
)

// Datasets keeps the most recently loaded databases so that the jobs of a
// batch mining the same file read it once. Databases are immutable and may
// be shared by concurrent jobs.
type Datasets struct {
	cache *lru.Cache
}

type datasetKey struct {
	data      string
	labels    string
	noClasses bool
	nbValues  int
}

type dataset struct {
	db     *mining.Database
	labels []string
}

// NewDatasets creates a cache holding up to size datasets.
func NewDatasets(size int) (*Datasets, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "dataset cache")
	}
	return &Datasets{cache: c}, nil
}

// Load returns the database and labels of j, reading them on a miss.
func (d *Datasets) Load(j *Job) (*mining.Database, []string, error) {
	key := datasetKey{data: j.Data, labels: j.Labels, noClasses: j.NoClasses, nbValues: j.NbValues}
	if v, ok := d.cache.Get(key); ok {
		ds := v.(dataset)
		return ds.db, ds.labels, nil
	}
	db, labels, err := j.Database()
	if err != nil {
		return nil, nil, err
	}
	d.cache.Add(key, dataset{db: db, labels: labels})
	return db, labels, nil
}

// Len returns the number of cached datasets.
func (d *Datasets) Len() int { return d.cache.Len() }
