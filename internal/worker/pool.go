package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Job pairs an input with its outcome.
type Job[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute processes every input and returns the jobs in input order.
// Inputs not started before ctx is cancelled get ctx.Err() as their error.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Job[T, R] {
	jobs := make([]Job[T, R], len(inputs))
	for i, in := range inputs {
		jobs[i].Input = in
	}

	inputCh := make(chan int)
	started := make([]bool, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				jobs[idx].Result = result
				jobs[idx].Err = err
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Int("job", idx+1).Msg("Job failed")
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
			started[i] = true
		}
	}
	close(inputCh)
	wg.Wait()

	for i := range jobs {
		if !started[i] {
			jobs[i].Err = ctx.Err()
		}
	}
	return jobs
}

// Errors joins the errors of all failed jobs, or returns nil.
func Errors[T any, R any](jobs []Job[T, R]) error {
	var errs []error
	for _, j := range jobs {
		if j.Err != nil {
			errs = append(errs, j.Err)
		}
	}
	return errors.Join(errs...)
}

// Batch splits items into consecutive slices of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
