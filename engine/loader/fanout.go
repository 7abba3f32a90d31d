package loader

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// runTasks submits every job to the pool and waits for all of them to finish.
// The first job error cancels the context handed to the others and is returned;
// jobs that start after the cancellation are skipped.
//
// Parameters:
//   - ctx: parent context for the jobs
//   - pool: the worker pool executing the jobs
//   - jobs: independent units of work
//
// Returns:
//   - error: the first job error, or the parent context's error
func runTasks(ctx context.Context, pool worker.DynamicWorkerPool, jobs []func(ctx context.Context) error) error {
	if len(jobs) == 0 {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for i, job := range jobs {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := job(ctx); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return nil, err
				}
				return nil, nil
			},
		})
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
