package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/stretchr/testify/assert"
)

func TestRunTasksAllSucceed(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(3, 64, 1*time.Second)

	var ran atomic.Int32
	jobs := make([]func(context.Context) error, 20)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}
	}

	assert.NoError(t, runTasks(context.Background(), pool, jobs))
	assert.Equal(t, int32(20), ran.Load())
}

func TestRunTasksFirstErrorWins(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(1, 64, 1*time.Second)
	boom := errors.New("boom")

	jobs := []func(context.Context) error{
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	}

	assert.ErrorIs(t, runTasks(context.Background(), pool, jobs), boom)
}

func TestRunTasksCancelledParent(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 8, 1*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	jobs := []func(context.Context) error{
		func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
	}

	assert.ErrorIs(t, runTasks(ctx, pool, jobs), context.Canceled)
	assert.Equal(t, int32(0), ran.Load())
	assert.ErrorIs(t, runTasks(ctx, pool, nil), context.Canceled)
}
