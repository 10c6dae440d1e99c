package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/okian/gradecurve/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Job is one independent grading run, usually one input file.
type Job struct {
	Name string
	Run  func(ctx context.Context) (*report.Report, error)
}

// Result is the outcome of a Job. Exactly one of Report and Err is set.
type Result struct {
	Name     string
	Report   *report.Report
	Err      error
	Duration time.Duration
}

// Pool executes jobs with bounded parallelism. A failing job does not
// cancel its siblings; cancelling ctx stops jobs that have not started.
type Pool struct {
	workers int
	name    string
	logger  logger.Logger
	meter   *metrics.Manager
}

// New creates a pool. The default size is the number of CPUs.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: runtime.NumCPU(),
		name:    "batch",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	if p.meter == nil {
		p.meter = metrics.Default()
	}
	return p
}

// Workers returns the parallelism bound.
func (p *Pool) Workers() int { return p.workers }

// Run executes jobs and returns one Result per job, in job order.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, job := range jobs {
		i, job := i, job
		results[i].Name = job.Name
		g.Go(func() error {
			results[i] = p.runOne(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info(ctx, "batch finished",
		logger.Int("jobs", len(jobs)),
		logger.Int("failed", failed),
		logger.Int("workers", p.workers),
	)
	return results
}

func (p *Pool) runOne(ctx context.Context, job Job) (res Result) {
	res.Name = job.Name
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: not started: %w", job.Name, err)
		return res
	}

	p.meter.AddBatchInflight(1)
	defer p.meter.AddBatchInflight(-1)

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Report = nil
			res.Err = fmt.Errorf("%s: job panicked: %v", job.Name, r)
			p.meter.RecordError("worker", "panic")
			p.logger.Error(ctx, "job panicked", logger.String("job", job.Name), logger.Any("panic", r))
		}
	}()

	rep, err := job.Run(ctx)
	if err != nil {
		res.Err = err
		p.logger.Debug(ctx, "job failed", logger.String("job", job.Name), logger.Error(err))
		return res
	}
	res.Report = rep
	return res
}
