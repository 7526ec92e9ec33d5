package authproxy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/asynccontext"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/asyncexecutor"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/cache"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/telemetry"
)

// Ctx is the AsyncContext specialization this package operates on.
type Ctx = asynccontext.Context[Request, Response]

// Delegate performs the actual wire authorization call (C4). Proxy
// drives it through the single-flight cache and never calls it twice
// concurrently for the same fingerprint.
type Delegate interface {
	AuthorizeInternal(ctx *Ctx) error
}

// Proxy is the authorization proxy base (C3): a single-flight
// orchestrator on top of the auto-expiring cache.
type Proxy struct {
	cache    *cache.Map[*CacheEntry]
	delegate Delegate
	pool     asyncexecutor.Pool
	lifetime time.Duration
	log      zerolog.Logger
}

// New constructs a Proxy. lifetime is the cache entry TTL
// (auth_cache_entry_lifetime in section 6; default 150s is the caller's
// responsibility via sdkconfig). pool is where the reserved entry's
// delegate.AuthorizeInternal callback actually runs (section 5: "callbacks
// may fire on any worker"); its lifecycle (Stop) is the caller's
// responsibility, since the same pool is typically shared across
// components.
func New(delegate Delegate, lifetime time.Duration, pool asyncexecutor.Pool) *Proxy {
	p := &Proxy{
		delegate: delegate,
		pool:     pool,
		lifetime: lifetime,
		log:      telemetry.Component("authproxy"),
	}
	p.cache = cache.New[*CacheEntry](lifetime, p.onBeforeEviction)
	return p
}

// Init, Run and Stop delegate to the underlying cache's lifecycle.
func (p *Proxy) Init() error { return p.cache.Init() }
func (p *Proxy) Run() error  { return p.cache.Run() }
func (p *Proxy) Stop() error { return p.cache.Stop() }

// onBeforeEviction is the eviction hook from section 4.1; this system
// unconditionally permits deletion.
func (p *Proxy) onBeforeEviction(_ string, _ *CacheEntry, decide func(bool)) {
	decide(true)
}

// Authorize implements the protocol in section 4.3. It returns nil to
// mean "accepted" (including the synchronous-success case, where
// outer.Finish has already run) and a *errors.DomainError for a
// synchronous Retry or Failure; when the wire call cannot be submitted
// to the pool, the pool's Submit error is returned unchanged. When
// Authorize returns nil without the context already finished,
// completion will arrive later via outer.Finish from
// handleInternalResponse.
func (p *Proxy) Authorize(outer *Ctx) error {
	if outer.Request == nil || !outer.Request.AuthorizationMetadata.Valid() {
		recordOutcome("failure", scperrors.KindBadRequest)
		return scperrors.New(scperrors.KindBadRequest, "invalid or missing authorization metadata")
	}

	fingerprint := outer.Request.AuthorizationMetadata.Fingerprint()
	candidate := newCacheEntry()

	outcome, existing := p.cache.Insert(fingerprint, candidate)
	switch outcome {
	case cache.BeingDeleted:
		recordOutcome("retry", scperrors.KindEntryBeingDeleted)
		return scperrors.New(scperrors.KindEntryBeingDeleted, "entry is being evicted, retry later")

	case cache.AlreadyExists:
		meta, loaded := existing.Snapshot()
		if loaded {
			outer.Response = &Response{AuthorizedMetadata: meta}
			outer.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
			recordOutcome("success", scperrors.KindUnspecified)
			return nil
		}
		recordOutcome("retry", scperrors.KindAuthRequestInProgress)
		return scperrors.New(scperrors.KindAuthRequestInProgress, "authorization already in progress for this fingerprint")

	case cache.Inserted:
		// fall through to reservation below
	}

	if err := p.cache.DisableEviction(fingerprint); err != nil {
		p.cache.Erase(fingerprint)
		recordOutcome("retry", scperrors.KindAuthRequestInProgress)
		return scperrors.New(scperrors.KindAuthRequestInProgress, "failed to pin reserved entry")
	}

	inner := asynccontext.NewChild[Request, Response, Request, Response](outer, outer.Request, func(c *Ctx) {
		p.handleInternalResponse(outer, fingerprint, c)
	})

	// The wire call runs on the shared pool, keyed by fingerprint, so
	// that FIFO per-fingerprint ordering holds even though the pool may
	// be running other fingerprints' work concurrently on other shards.
	job := asyncexecutor.JobFunc(func(context.Context) error {
		return p.delegate.AuthorizeInternal(inner)
	})
	if err := p.pool.Submit(context.Background(), fingerprint, job); err != nil {
		p.cache.Erase(fingerprint)
		recordOutcome("failure", scperrors.KindOf(err))
		return err
	}

	return nil
}

// handleInternalResponse implements the completion half of section 4.3.
func (p *Proxy) handleInternalResponse(outer *Ctx, fingerprint string, inner *Ctx) {
	result := inner.Result()

	if !result.Succeeded() {
		p.cache.Erase(fingerprint)
		outer.Response = inner.Response
		outer.Finish(result)
		recordOutcome(outcomeLabel(result.Status), scperrors.KindOf(result.Err))
		return
	}

	var meta AuthorizedMetadata
	if inner.Response != nil {
		meta = inner.Response.AuthorizedMetadata
	}
	outer.Response = &Response{AuthorizedMetadata: meta}

	entry, found := p.cache.Find(fingerprint)
	if !found {
		// Open question from section 9: the entry disappeared mid-flight
		// (e.g. evicted concurrently). Preserve the caller-visible success
		// but skip EnableEviction since there is nothing left to enable.
		p.log.Warn().Str("fingerprint", fingerprint).Msg("cache entry vanished before commit; completing caller with success anyway")
		outer.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
		recordOutcome("success", scperrors.KindUnspecified)
		return
	}

	entry.markLoaded(meta)
	if err := p.cache.EnableEviction(fingerprint); err != nil {
		p.cache.Erase(fingerprint)
	}

	outer.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
	recordOutcome("success", scperrors.KindUnspecified)
}

func outcomeLabel(s asynccontext.Status) string {
	switch s {
	case asynccontext.StatusRetry:
		return "retry"
	case asynccontext.StatusFailure:
		return "failure"
	default:
		return "success"
	}
}

func recordOutcome(outcome string, kind scperrors.Kind) {
	telemetry.AuthorizeOutcomesTotal.WithLabelValues(outcome, kind.String()).Inc()
}
