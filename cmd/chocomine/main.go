// Command chocomine mines itemsets from .dat datasets.
//
// A single query is described with flags:
//
//	chocomine -data toy.dat -no-classes -task closed -minfreq 3
//	chocomine -data zoo.dat -values 1 -task sky -skyline freq,area,mean0
//
// Several queries can be run concurrently from a YAML batch file:
//
//	chocomine -batch jobs.yaml
//
// Logging, the worker count and the default search limits come from the
// CHOCOMINE_* environment variables (see internal/config).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bagouryy/choco-mining/internal/config"
	"github.com/bagouryy/choco-mining/internal/parallel"
	"github.com/bagouryy/choco-mining/pkg/mining"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "chocomine:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	var (
		job              config.Job
		batch            string
		exclude, require string
		stats            bool
	)
	fs := flag.NewFlagSet("chocomine", flag.ContinueOnError)
	fs.StringVar(&batch, "batch", "", "YAML batch file of jobs")
	fs.StringVar(&job.Data, "data", "", ".dat dataset")
	fs.BoolVar(&job.NoClasses, "no-classes", false, "the first item of each transaction is not a class")
	fs.IntVar(&job.NbValues, "values", 0, "number of attribute files (data.val0, data.val1...)")
	fs.StringVar(&job.Labels, "labels", "", "file of item display labels")
	fs.StringVar(&job.Task, "task", "closed", "closed, frequent, generators, maximal, minimal, diverse or skypatterns")
	fs.StringVar(&job.Measures, "measures", "", "closure measures of the closed task")
	fs.StringVar(&job.Skyline, "skyline", "", "skypattern objectives")
	fs.StringVar(&job.Extra, "extra", "", "extra measures reported with each pattern")
	fs.IntVar(&job.MinFreq, "minfreq", 0, "minimum frequency")
	fs.Float64Var(&job.RelMinFreq, "relminfreq", 0, "minimum frequency relative to the number of transactions")
	fs.IntVar(&job.MaxFreq, "maxfreq", 0, "maximum frequency")
	fs.IntVar(&job.MinLength, "minlen", 0, "minimum pattern length")
	fs.IntVar(&job.MaxLength, "maxlen", 0, "maximum pattern length")
	fs.IntVar(&job.Threshold, "threshold", 0, "frequency border of the maximal and minimal tasks")
	fs.Float64Var(&job.JMax, "jmax", 0.2, "maximum Jaccard index of the diverse task")
	fs.IntVar(&job.Theta, "theta", 0, "minimum frequency of the diverse task, used by the diversity bound")
	fs.StringVar(&job.Consistency, "consistency", "wc", "closure consistency: wc or dc")
	fs.StringVar(&job.Cover, "cover", "sparse", "cover representation: sparse or dense")
	fs.StringVar(&job.Heuristic, "heuristic", "mincov", "branching heuristic: mincov or input")
	fs.StringVar(&exclude, "exclude", "", "file of excluded items")
	fs.StringVar(&require, "require", "", "file of items, at least one is required")
	fs.IntVar(&job.ItemsMaxFreq, "items-max-freq", 0, "require an item of frequency at most this value")
	fs.BoolVar(&job.SaveTransactions, "transactions", false, "print the covering transactions")
	fs.DurationVar(&job.TimeLimit, "timeout", 0, "search time limit")
	fs.IntVar(&job.SolutionLimit, "limit", 0, "maximum number of solutions")
	fs.BoolVar(&stats, "stats", false, "print search statistics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var jobs []config.Job
	switch {
	case batch != "":
		b, err := config.LoadBatch(batch)
		if err != nil {
			return err
		}
		jobs = b.Jobs
	case job.Data != "":
		if job.Exclude, err = readItems(exclude); err != nil {
			return err
		}
		if job.Require, err = readItems(require); err != nil {
			return err
		}
		job.Name = job.Data
		jobs = []config.Job{job}
	default:
		fs.Usage()
		return errors.New("one of -data or -batch is required")
	}

	datasets, err := config.NewDatasets(cfg.DatasetCache)
	if err != nil {
		return err
	}
	runJobs := make([]parallel.Job, len(jobs))
	labels := make([][]string, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		task, err := j.MiningTask()
		if err != nil {
			return errors.Wrapf(err, "job %s", j.Name)
		}
		db, l, err := datasets.Load(j)
		if err != nil {
			return errors.Wrapf(err, "job %s", j.Name)
		}
		logger.WithFields(log.Fields{
			"job":          j.Name,
			"items":        db.NbItems(),
			"transactions": db.NbTransactions(),
			"density":      fmt.Sprintf("%.3f", db.Density()),
		}).Info("dataset loaded")
		runJobs[i] = parallel.NewJob(j.Name, db, task, j.SearchOptions(cfg)...)
		labels[i] = l
	}

	r := parallel.NewRunner(cfg.Workers, logger)
	defer r.Close()
	var failed []string
	for i, o := range r.Run(ctx, runJobs) {
		if len(jobs) > 1 {
			fmt.Fprintf(stdout, "# %s\n", o.Job.Name)
		}
		if o.Result != nil {
			printResult(stdout, o.Result, o.Job.DB, labels[i], stats)
		}
		if o.Err != nil {
			failed = append(failed, o.Job.Name)
			logger.WithError(o.Err).WithField("job", o.Job.Name).Error("mining failed")
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("%d job(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func readItems(path string) ([]int, error) {
	if path == "" {
		return nil, nil
	}
	return mining.ReadItemListFile(path)
}

func printResult(w io.Writer, res *mining.Result, db *mining.Database, labels []string, stats bool) {
	for _, p := range res.Patterns {
		fmt.Fprintln(w, p.Format(res.MeasureIDs, db, labels))
		if p.Transactions != nil {
			var ts []string
			for t, ok := p.Transactions.NextSet(0); ok; t, ok = p.Transactions.NextSet(t + 1) {
				ts = append(ts, fmt.Sprint(t))
			}
			fmt.Fprintf(w, "  transactions: [%s]\n", strings.Join(ts, ", "))
		}
	}
	if stats && res.Stats != nil {
		fmt.Fprintln(w, res.Stats)
	}
}
