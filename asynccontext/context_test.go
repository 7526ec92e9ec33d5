package asynccontext

import (
	"testing"
)

func TestFinishFiresCallbackExactlyOnce(t *testing.T) {
	calls := 0
	var lastResult Result
	ctx := New[string, string](nil, func(c *Context[string, string]) {
		calls++
		lastResult = c.Result()
	})

	ctx.Finish(Result{Status: StatusSuccess})
	ctx.Finish(Result{Status: StatusFailure}) // must be ignored

	if calls != 1 {
		t.Fatalf("expected callback to fire exactly once, fired %d times", calls)
	}
	if lastResult.Status != StatusSuccess {
		t.Fatalf("expected Success, got %v", lastResult.Status)
	}
	if !ctx.Finished() {
		t.Fatalf("expected Finished() to be true")
	}
}

func TestNewChildInheritsCorrelationID(t *testing.T) {
	parent := New[string, string](nil, nil)
	child := NewChild[string, string, int, int](parent, nil, nil)

	if child.CorrelationID != parent.CorrelationID {
		t.Fatalf("expected child correlation id %v to match parent %v", child.CorrelationID, parent.CorrelationID)
	}
	if child.ActivityID == parent.ActivityID {
		t.Fatalf("expected child activity id to differ from parent")
	}
}
