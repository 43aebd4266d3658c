// Package worker provides a generic worker pool for fanning out independent
// file operations (frame replication) inside one segment.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work with an index for ordering.
type Job[T any] struct {
	Index int
	Data  T
}

// Result represents the outcome of processing a Job.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// ProcessFunc processes a job and returns a result.
type ProcessFunc[I, O any] func(ctx context.Context, job Job[I]) (O, error)

// ProgressFunc is called after each job completes.
type ProgressFunc func(completed, total int)

// Pool manages concurrent job processing with a fixed number of workers.
// The first failing job cancels the jobs that have not started yet.
type Pool[I, O any] struct {
	workers    int
	process    ProcessFunc[I, O]
	onProgress ProgressFunc
	jobChan    chan Job[I]
	resultChan chan Result[O]
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// PoolOptions configures pool behavior.
type PoolOptions struct {
	Workers    int
	BufferSize int // If 0, defaults to Workers
}

// NewPool creates a new worker pool bound to ctx.
func NewPool[I, O any](ctx context.Context, opts PoolOptions, process ProcessFunc[I, O]) *Pool[I, O] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = opts.Workers
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[I, O]{
		workers:    opts.Workers,
		process:    process,
		jobChan:    make(chan Job[I], opts.BufferSize),
		resultChan: make(chan Result[O], opts.BufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetProgressCallback sets a callback to be called after each job completes.
func (p *Pool[I, O]) SetProgressCallback(fn ProgressFunc) {
	p.onProgress = fn
}

// Start begins the worker pool processing.
func (p *Pool[I, O]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[I, O]) worker() {
	defer p.wg.Done()
	for job := range p.jobChan {
		if err := p.ctx.Err(); err != nil {
			p.resultChan <- Result[O]{Index: job.Index, Err: err}
			continue
		}
		value, err := p.process(p.ctx, job)
		if err != nil {
			p.cancel()
		}
		p.resultChan <- Result[O]{Index: job.Index, Value: value, Err: err}
	}
}

// Run submits all jobs, starts workers and collects results in order.
func (p *Pool[I, O]) Run(jobs []Job[I]) []Result[O] {
	defer p.cancel()

	total := len(jobs)
	results := make([]Result[O], total)

	p.Start()

	go func() {
		for _, job := range jobs {
			p.jobChan <- job
		}
		close(p.jobChan)
		p.wg.Wait()
		close(p.resultChan)
	}()

	completed := 0
	for result := range p.resultChan {
		if result.Index >= 0 && result.Index < total {
			results[result.Index] = result
		}
		completed++
		if p.onProgress != nil {
			p.onProgress(completed, total)
		}
	}

	return results
}

// Process creates a pool, processes all items and returns ordered results.
// It returns the first error by index; a caller's own error takes precedence
// over the cancellation errors it caused in later jobs.
func Process[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onProgress ProgressFunc) ([]O, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if workers > len(items) {
		workers = len(items)
	}

	jobs := make([]Job[I], len(items))
	for i, item := range items {
		jobs[i] = Job[I]{Index: i, Data: item}
	}

	pool := NewPool(ctx, PoolOptions{Workers: workers, BufferSize: len(items)}, process)
	pool.SetProgressCallback(onProgress)
	results := pool.Run(jobs)

	var cancelErr error
	output := make([]O, len(results))
	for i, result := range results {
		if result.Err != nil {
			if result.Err == context.Canceled && ctx.Err() == nil {
				if cancelErr == nil {
					cancelErr = result.Err
				}
				continue
			}
			return nil, result.Err
		}
		output[i] = result.Value
	}
	if cancelErr != nil {
		return nil, cancelErr
	}

	return output, nil
}
