package scoring

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func TestProcessEmpty(t *testing.T) {
	pool := NewWorkerPool(DefaultWorkerPoolConfig(), nopLogger())
	assert.Nil(t, Process[int](context.Background(), pool, nil))
}

func TestProcessAllItemsDespiteFailures(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, nopLogger())

	items := make([]WorkItem[int], 10)
	for i := range items {
		i := i
		items[i] = WorkItem[int]{
			ID: int64(i),
			Execute: func(ctx context.Context) (int, error) {
				if i%3 == 0 {
					return 0, fmt.Errorf("item %d failed", i)
				}
				return i * 2, nil
			},
		}
	}

	results := Process(context.Background(), pool, items)
	assert.Len(t, results, 10)

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
			assert.Equal(t, r.Result, int(r.ID)*2)
		}
	}
	assert.Equal(t, 4, failed)
	assert.Equal(t, 6, succeeded)
}

func TestProcessBoundsConcurrency(t *testing.T) {
	const limit = 3
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: limit}, nopLogger())

	var inFlight, peak int64
	items := make([]WorkItem[struct{}], 20)
	for i := range items {
		items[i] = WorkItem[struct{}]{
			ID: int64(i),
			Execute: func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				atomic.AddInt64(&inFlight, -1)
				return struct{}{}, nil
			},
		}
	}

	Process(context.Background(), pool, items)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit))
}

func TestProcessCancelledContext(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, nopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []WorkItem[int]{
		{ID: 1, Execute: func(ctx context.Context) (int, error) { return 1, nil }},
	}

	results := Process(ctx, pool, items)
	assert.Len(t, results, 1)
}
