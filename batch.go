package mathtex

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wudi/mathtex/observability"
	"github.com/wudi/mathtex/svgraster"
)

// Job is one formula in a batch.
type Job struct {
	ID      string
	Formula string
	Render  RenderOptions
}

// Result is the outcome of a Job. Err is set when the job failed; the
// other fields are then empty.
type Result struct {
	Job     Job
	Image   *svgraster.PixelBuffer
	SVG     string
	Err     error
	Elapsed time.Duration
}

// BatchOptions controls RenderBatch.
type BatchOptions struct {
	// Workers is the number of rasterization workers. Zero uses the
	// configured worker count, then GOMAXPROCS.
	Workers int
	// Progress is called after each job with the number of finished jobs.
	// Calls are serialized.
	Progress func(done, total int, r Result)
}

// RenderBatch renders every job and returns results in job order. Job
// failures are reported in Result.Err and do not stop the batch. Engine
// conversions run one at a time; rasterization runs on the worker pool.
// When ctx is cancelled, unstarted jobs fail with the context error and
// RenderBatch returns it.
func (c *Converter) RenderBatch(ctx context.Context, jobs []Job, opts BatchOptions) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = c.cfg.Render.Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]Result, len(jobs))
	var (
		done     int64
		failed   int64
		reportMu sync.Mutex
	)
	report := func(i int) {
		n := atomic.AddInt64(&done, 1)
		if results[i].Err != nil {
			atomic.AddInt64(&failed, 1)
		}
		if opts.Progress == nil {
			return
		}
		reportMu.Lock()
		defer reportMu.Unlock()
		opts.Progress(int(n), len(jobs), results[i])
	}

	start := time.Now()
	tasks := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				results[i] = c.runJob(ctx, jobs[i])
				report(i)
			}
		}()
	}

	next := 0
produceLoop:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break produceLoop
		case tasks <- next:
		}
	}
	close(tasks)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = Result{Job: jobs[i], Err: ctx.Err()}
		report(i)
	}

	c.logger.Info("batch finished",
		observability.Int("jobs", len(jobs)),
		observability.Int64("failed", atomic.LoadInt64(&failed)),
		observability.Int("workers", workers),
		observability.Duration("elapsed", time.Since(start)))
	return results, ctx.Err()
}

func (c *Converter) runJob(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	buf, svg, err := c.RenderFormulaToImage(ctx, job.Formula, job.Render)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		c.logger.Debug("batch job failed", observability.String("id", job.ID), observability.Error("error", err))
		return res
	}
	res.Image, res.SVG = buf, svg
	return res
}
