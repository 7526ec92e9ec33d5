// Package asynccontext provides the uniform async task carrier (C7) used
// by the asynchronous operations in this module: the authorization
// proxy and its HTTP delegate. It is an
// explicit, generic carrier that owns its request, its result slot, and
// a single-fire completion callback, and that threads a parent's trace
// identifiers down to children the way a request ID is threaded through
// an HTTP call chain.
package asynccontext

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the tri-valued completion state described in section 4 /
// section 7: exactly one of Success, Failure, Retry is observed.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailure
	StatusRetry
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusRetry:
		return "RETRY"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome delivered to a Context's callback.
type Result struct {
	Status Status
	Err    error // set when Status is Failure or Retry
}

// Succeeded reports whether the result represents success.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// Context is the generic async task carrier. Req and Resp are the
// request and response payload types. A Context must be created via New
// or NewChild so its identifiers and finish-once guard are initialized.
type Context[Req any, Resp any] struct {
	// ActivityID identifies this logical operation; CorrelationID ties a
	// tree of parent/child contexts together for tracing, propagated from
	// the root ancestor.
	ActivityID    uuid.UUID
	CorrelationID uuid.UUID

	Request  *Req
	Response *Resp

	callback func(*Context[Req, Resp])

	mu       sync.Mutex
	finished bool
	result   Result
}

// New creates a root Context with a fresh correlation ID.
func New[Req any, Resp any](request *Req, callback func(*Context[Req, Resp])) *Context[Req, Resp] {
	id := uuid.New()
	return &Context[Req, Resp]{
		ActivityID:    id,
		CorrelationID: id,
		Request:       request,
		callback:      callback,
	}
}

// NewChild creates a child Context that inherits the parent's
// CorrelationID (for trace linkage) but gets its own ActivityID, as
// section 4.3 requires for the inner AsyncContext built around
// AuthorizeInternal.
func NewChild[ParentReq, ParentResp, Req, Resp any](parent *Context[ParentReq, ParentResp], request *Req, callback func(*Context[Req, Resp])) *Context[Req, Resp] {
	return &Context[Req, Resp]{
		ActivityID:    uuid.New(),
		CorrelationID: parent.CorrelationID,
		Request:       request,
		callback:      callback,
	}
}

// Finish dispatches the completion callback exactly once. Calling Finish
// more than once is a no-op after the first call, matching the
// "callback fires at most once" invariant. Result and Response are
// immutable once Finish returns to the caller of Finish.
func (c *Context[Req, Resp]) Finish(result Result) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.result = result
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(c)
	}
}

// Result returns the (possibly still pending) result. Safe for
// concurrent use; callers should only trust the value after the
// callback has observed completion.
func (c *Context[Req, Resp]) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Finished reports whether Finish has already run.
func (c *Context[Req, Resp]) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
