// Package batch executes many independent simulation problems on a
// fixed-size worker pool. Runs share nothing but immutable configuration;
// results are keyed by run ID, never by completion order.
package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/gyresim/internal/sim"
)

// Outcome is the terminal state of one problem: an Output on success, or
// the error that invalidated the run. A failed run keeps its error kind
// and is never recorded as merely non-converged.
type Outcome struct {
	Output *sim.Output
	Err    error
}

// Results maps run ID to outcome.
type Results map[string]Outcome

// Pool runs problems across a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool. A non-positive worker count uses one worker
// per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run executes every problem and collects all outcomes. Cancellation
// stops feeding new problems; problems never started are recorded with
// the context error so no ID silently disappears from the result set.
func (p *Pool) Run(ctx context.Context, problems []sim.Problem) Results {
	jobs := make(chan sim.Problem)
	results := make(Results, len(problems))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for prob := range jobs {
				out, err := sim.Run(ctx, prob)
				mu.Lock()
				results[prob.ID] = Outcome{Output: out, Err: err}
				mu.Unlock()
			}
		}()
	}

feed:
	for i, prob := range problems {
		select {
		case jobs <- prob:
		case <-ctx.Done():
			mu.Lock()
			for _, rest := range problems[i:] {
				if _, started := results[rest.ID]; !started {
					results[rest.ID] = Outcome{Err: ctx.Err()}
				}
			}
			mu.Unlock()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
