package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Mode selects how a batch of tasks is executed.
type Mode string

const (
	Sequential Mode = "sequential"
	Parallel   Mode = "parallel"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Sequential, Parallel:
		return Mode(s), nil
	default:
		return "", errors.Errorf("unknown mode '%s'", s)
	}
}

// Dispatcher runs a batch of tasks either one at a time or across a bounded
// pool of workers. Task indexes must be unique and contiguous from zero;
// results are always paired with their originating index, never with
// completion order.
type Dispatcher struct {
	proc    SegmentProc
	workers int
}

func NewDispatcher(proc SegmentProc, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	return &Dispatcher{proc: proc, workers: workers}
}

// Run blocks until every task in the batch has resolved and returns all
// results keyed by index plus the elapsed wall clock. There is no partial
// return and no per-task cancellation once submitted.
func (d *Dispatcher) Run(ctx context.Context, tasks []Task, mode Mode) ([]Result, time.Duration, error) {
	start := time.Now()

	var results []Result

	switch mode {
	case Sequential:
		results = d.runSequential(ctx, tasks)
	case Parallel:
		results = d.runParallel(ctx, tasks)
	default:
		return nil, 0, errors.Errorf("unknown mode '%s'", mode)
	}

	return results, time.Since(start), nil
}

func (d *Dispatcher) runSequential(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	for _, task := range tasks {
		results[task.Index] = d.proc.Process(ctx, task)
	}

	return results
}

func (d *Dispatcher) runParallel(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	taskCh := make(chan Task)

	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for task := range taskCh {
				// Each worker writes only its task's slot, so no locking
				// is needed between workers.
				results[task.Index] = d.proc.Process(ctx, task)
			}
		}()
	}

	for _, task := range tasks {
		taskCh <- task
	}

	close(taskCh)
	wg.Wait()

	return results
}

// Successes filters results down to the successful ones, in index order.
func Successes(results []Result) []Result {
	ok := make([]Result, 0, len(results))

	for _, res := range results {
		if res.Ok() {
			ok = append(ok, res)
		}
	}

	return ok
}
