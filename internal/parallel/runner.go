package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bagouryy/choco-mining/pkg/cp"
	"github.com/bagouryy/choco-mining/pkg/mining"
)

// Job is a mining query ready to run.
type Job struct {
	ID      string
	Name    string
	DB      *mining.Database
	Task    mining.Task
	Options []cp.Option
}

// NewJob creates a job with a fresh identifier.
func NewJob(name string, db *mining.Database, task mining.Task, opts ...cp.Option) Job {
	return Job{ID: uuid.NewString(), Name: name, DB: db, Task: task, Options: opts}
}

// Outcome is the result of one job.
type Outcome struct {
	Job     Job
	Result  *mining.Result
	Err     error
	Elapsed time.Duration
}

// Runner mines jobs concurrently on a WorkerPool.
type Runner struct {
	pool   *WorkerPool
	logger log.FieldLogger
}

// NewRunner creates a runner with the given number of workers (0: one per
// CPU). A nil logger selects the standard logrus logger.
func NewRunner(workers int, logger log.FieldLogger) *Runner {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Runner{pool: NewWorkerPool(workers), logger: logger}
}

// Close releases the workers.
func (r *Runner) Close() { r.pool.Shutdown() }

// Run mines every job and returns the outcomes in the order of jobs. A job
// that could not be submitted gets the submission error.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	var wg sync.WaitGroup
	for i := range jobs {
		i := i
		out[i].Job = jobs[i]
		if out[i].Job.ID == "" {
			out[i].Job.ID = uuid.NewString()
		}
		wg.Add(1)
		err := r.pool.Submit(ctx, func() {
			defer wg.Done()
			out[i] = r.mine(ctx, out[i].Job)
		})
		if err != nil {
			wg.Done()
			out[i].Err = errors.Wrapf(err, "submitting job %s", out[i].Job.Name)
		}
	}
	wg.Wait()
	return out
}

func (r *Runner) mine(ctx context.Context, job Job) Outcome {
	logger := r.logger.WithFields(log.Fields{"job": job.ID, "name": job.Name})
	logger.WithField("task", job.Task.Kind).Info("job started")
	start := time.Now()
	opts := append([]cp.Option{cp.WithLogger(logger)}, job.Options...)
	res, err := mining.Mine(ctx, job.DB, job.Task, opts...)
	o := Outcome{Job: job, Result: res, Err: err, Elapsed: time.Since(start)}
	entry := logger.WithField("elapsed", o.Elapsed)
	if res != nil {
		entry = entry.WithField("patterns", len(res.Patterns))
	}
	if err != nil {
		entry.WithError(err).Warn("job failed")
	} else {
		entry.Info("job finished")
	}
	return o
}
