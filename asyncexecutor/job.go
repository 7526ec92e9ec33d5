package asyncexecutor

import "context"

// Job is a unit of work executed by the Pool. Run must be safe to call
// from any worker goroutine; the Pool guarantees at most one concurrent
// Run per shard key, not per Job instance.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Pool is the contract section 1 calls "an async execution pool": it
// schedules callbacks and supports cooperative cancellation on
// shutdown. The authorization proxy depends only on this interface to
// dispatch a reserved cache entry's delegate.AuthorizeInternal call onto
// a worker; ShardPool is the concrete implementation this module ships
// for tests and default wiring. (Key-vending's per-endpoint fanout has
// no FIFO-per-key requirement and uses golang.org/x/sync/errgroup
// instead, see keyvending.Fetcher.)
type Pool interface {
	// Submit enqueues job under key. Jobs submitted under the same key
	// run in FIFO order; jobs under different keys may run in parallel.
	Submit(ctx context.Context, key string, job Job) error
	// Stop drains in-flight work and prevents new callbacks from firing.
	Stop()
}
