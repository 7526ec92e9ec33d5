package authproxy

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/asynccontext"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/asyncexecutor"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// fakeDelegate lets tests control exactly how AuthorizeInternal resolves.
type fakeDelegate struct {
	mu        sync.Mutex
	calls     int32
	resolve   func(ctx *Ctx)
	blockedCh chan struct{} // closed to release a held call, if set
}

func (f *fakeDelegate) AuthorizeInternal(ctx *Ctx) error {
	atomic.AddInt32(&f.calls, 1)
	if f.blockedCh != nil {
		<-f.blockedCh
	}
	f.resolve(ctx)
	return nil
}

func newProxy(t *testing.T, d Delegate, lifetime time.Duration) *Proxy {
	t.Helper()
	pool := asyncexecutor.NewShardPool(asyncexecutor.Config{})
	t.Cleanup(pool.Stop)

	p := New(d, lifetime, pool)
	if err := p.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := p.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	t.Cleanup(func() { p.Stop() })
	return p
}

// waitFinished deterministically waits for fingerprint's dispatched job to
// drain via the pool's Barrier (rather than polling ctx.Finished()), which
// guarantees the AuthorizeInternal call submitted ahead of it on the same
// shard has already run since Submit preserves FIFO order per key.
func waitFinished(t *testing.T, p *Proxy, fingerprint string, ctx *Ctx) {
	t.Helper()
	if err := p.pool.(*asyncexecutor.ShardPool).Barrier(context.Background(), fingerprint); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if !ctx.Finished() {
		t.Fatal("context never finished")
	}
}

func TestAuthorizeCacheMissThenHit(t *testing.T) {
	delegate := &fakeDelegate{resolve: func(ctx *Ctx) {
		ctx.Response = &Response{AuthorizedMetadata: AuthorizedMetadata{AuthorizedDomain: "example.com"}}
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
	}}
	p := newProxy(t, delegate, time.Minute)

	req := Request{AuthorizationMetadata: AuthorizationMetadata{ClaimedIdentity: "alice", AuthorizationToken: "tok"}}

	first := asynccontext.New[Request, Response](&req, nil)
	if err := p.Authorize(first); err != nil {
		t.Fatalf("first authorize: %v", err)
	}
	waitFinished(t, p, req.AuthorizationMetadata.Fingerprint(), first)
	if !first.Result().Succeeded() {
		t.Fatalf("expected success, got %v", first.Result())
	}
	if first.Response.AuthorizedMetadata.AuthorizedDomain != "example.com" {
		t.Fatalf("unexpected domain: %+v", first.Response)
	}

	second := asynccontext.New[Request, Response](&req, nil)
	if err := p.Authorize(second); err != nil {
		t.Fatalf("second authorize: %v", err)
	}
	if !second.Finished() {
		t.Fatal("cache hit should finish synchronously")
	}
	if atomic.LoadInt32(&delegate.calls) != 1 {
		t.Fatalf("expected exactly one delegate call, got %d", delegate.calls)
	}
}

func TestAuthorizeConcurrentInFlightReturnsRetry(t *testing.T) {
	blocked := make(chan struct{})
	delegate := &fakeDelegate{
		blockedCh: blocked,
		resolve: func(ctx *Ctx) {
			ctx.Response = &Response{AuthorizedMetadata: AuthorizedMetadata{AuthorizedDomain: "example.com"}}
			ctx.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
		},
	}
	p := newProxy(t, delegate, time.Minute)

	req := Request{AuthorizationMetadata: AuthorizationMetadata{ClaimedIdentity: "bob", AuthorizationToken: "tok2"}}

	first := asynccontext.New[Request, Response](&req, nil)
	go p.Authorize(first)

	time.Sleep(20 * time.Millisecond) // let the first call reserve the entry

	second := asynccontext.New[Request, Response](&req, nil)
	err := p.Authorize(second)
	if err == nil {
		t.Fatal("expected retry error for concurrent in-flight authorize")
	}
	if scperrors.KindOf(err) != scperrors.KindAuthRequestInProgress {
		t.Fatalf("expected AUTH_REQUEST_INPROGRESS, got %v", err)
	}

	close(blocked)
	waitFinished(t, p, req.AuthorizationMetadata.Fingerprint(), first)
}

func TestAuthorizeInnerFailureDoesNotCache(t *testing.T) {
	delegate := &fakeDelegate{resolve: func(ctx *Ctx) {
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusFailure, Err: scperrors.New(scperrors.KindUnauthorized, "denied")})
	}}
	p := newProxy(t, delegate, time.Minute)

	req := Request{AuthorizationMetadata: AuthorizationMetadata{ClaimedIdentity: "carol", AuthorizationToken: "tok3"}}

	first := asynccontext.New[Request, Response](&req, nil)
	if err := p.Authorize(first); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	waitFinished(t, p, req.AuthorizationMetadata.Fingerprint(), first)
	if first.Result().Succeeded() {
		t.Fatal("expected failure result")
	}

	second := asynccontext.New[Request, Response](&req, nil)
	if err := p.Authorize(second); err != nil {
		t.Fatalf("second authorize: %v", err)
	}
	waitFinished(t, p, req.AuthorizationMetadata.Fingerprint(), second)
	if atomic.LoadInt32(&delegate.calls) != 2 {
		t.Fatalf("expected a fresh delegate call since failure was not cached, got %d", delegate.calls)
	}
}

func TestAuthorizeInvalidMetadataIsBadRequest(t *testing.T) {
	delegate := &fakeDelegate{resolve: func(ctx *Ctx) {
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
	}}
	p := newProxy(t, delegate, time.Minute)

	cases := []AuthorizationMetadata{
		{ClaimedIdentity: "", AuthorizationToken: "tok"},
		{ClaimedIdentity: "dave", AuthorizationToken: ""},
		{ClaimedIdentity: "", AuthorizationToken: ""},
	}
	for _, meta := range cases {
		req := Request{AuthorizationMetadata: meta}
		ctx := asynccontext.New[Request, Response](&req, nil)
		err := p.Authorize(ctx)
		if scperrors.KindOf(err) != scperrors.KindBadRequest {
			t.Fatalf("expected BAD_REQUEST for %+v, got %v", meta, err)
		}
	}
	if atomic.LoadInt32(&delegate.calls) != 0 {
		t.Fatalf("delegate should never be called for invalid metadata")
	}
}
