// Package asyncexecutor implements the "async execution pool" collaborator
// described in section 1 of the design: it schedules callbacks and
// supports cooperative cancellation on shutdown. The module treats the
// pool's exact implementation as out of scope (any executor satisfying
// Pool works), but ships ShardPool -- a sharded worker pool with
// per-shard FIFO queues and retry-with-backoff -- as the default/test
// implementation so the authorization proxy has somewhere to actually
// run its reserved-entry dispatch (authproxy.Proxy.Authorize keys
// Submit by credential fingerprint).
package asyncexecutor

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// ShardPool executes Jobs on worker goroutines partitioned by a stable
// hash of the shard key. FIFO ordering is preserved within a shard;
// jobs under different keys may run in parallel. Callers must not
// invoke Submit concurrently for the same key if they depend on FIFO
// ordering for that key.
type ShardPool struct {
	cfg    Config
	queues []chan queuedJob

	done   chan struct{}
	closed uint32

	wg  sync.WaitGroup
	log zerolog.Logger
}

var _ Pool = (*ShardPool)(nil)

// NewShardPool constructs the pool and starts its shard workers.
func NewShardPool(cfg Config) *ShardPool {
	cfg = cfg.withDefaults()
	p := &ShardPool{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
		log:    telemetry.Component("asyncexecutor"),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job for the shard derived from key.
func (p *ShardPool) Submit(ctx context.Context, key string, job Job) error {
	if atomic.LoadUint32(&p.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	qj := queuedJob{ctx: ctx, job: job}
	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- qj:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier enqueues a no-op job on the shard for key and waits for it to
// run, guaranteeing every previously submitted job for that key has
// completed. Used by authproxy's tests to deterministically wait for a
// dispatched AuthorizeInternal call to resolve instead of polling.
func (p *ShardPool) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := p.Submit(ctx, key, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop signals every worker to finish draining its current queue, waits
// for them to terminate, and returns. Idempotent; safe for concurrent
// use. No callback fires after Stop returns.
func (p *ShardPool) Stop() {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return
	}
	p.log.Info().Int("shards", p.cfg.Shards).Msg("stopping pool, draining shards")
	close(p.done)
	p.wg.Wait()
	p.log.Info().Msg("pool stopped, all shards drained")
}

func (p *ShardPool) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker", idx).Msg("worker panic")
		}
	}()

	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			select {
			case <-qj.ctx.Done():
				p.safeHandleError(qj.ctx.Err())
			default:
				p.runWithRetry(qj, label)
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			p.drain(idx, ch, label)
			return
		}
	}
}

func (p *ShardPool) runWithRetry(qj queuedJob, label string) {
	attempts := 0
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	for {
		start := time.Now()
		err := qj.job.Run(qj.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if !isRetryable(err) {
			p.safeHandleError(err)
			return
		}
		if attempts >= p.cfg.MaxAttempts-1 {
			p.safeHandleError(err)
			return
		}

		attempts++
		wait := exp.NextBackOff()
		select {
		case <-time.After(wait):
		case <-p.done:
			return
		case <-qj.ctx.Done():
			p.safeHandleError(qj.ctx.Err())
			return
		}
	}
}

func (p *ShardPool) drain(idx int, ch <-chan queuedJob, label string) {
	drained := 0
	for {
		select {
		case qj := <-ch:
			if qj.job != nil {
				_ = qj.job.Run(qj.ctx)
				drained++
			}
		default:
			if drained > 0 {
				p.log.Info().Int("worker", idx).Int("drained", drained).Msg("drained remaining jobs on stop")
			}
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

func (p *ShardPool) safeHandleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("error handler panic")
		}
	}()
	p.cfg.ErrorHandler(err)
}

func (p *ShardPool) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % p.cfg.Shards
}

// isRetryable classifies a job error using the shared domain Kind
// taxonomy when available, falling back to "retry" for unclassified
// errors so a transient failure isn't silently dropped.
func isRetryable(err error) bool {
	if de, ok := err.(*errors.DomainError); ok {
		return de.Retryable()
	}
	return true
}
