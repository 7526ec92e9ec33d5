package asyncexecutor

import (
	"errors"
	"fmt"
)

// ErrExecutorClosed is returned by Submit once Stop has been called.
var ErrExecutorClosed = errors.New("asyncexecutor: pool stopped")

// ErrQueueFull is the sentinel wrapped by QueueFullError so callers can
// use errors.Is without inspecting fields.
var ErrQueueFull = errors.New("asyncexecutor: shard queue full")

// QueueFullError reports which shard rejected a Submit and its
// occupancy at the time, for diagnosability.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("asyncexecutor: shard %d full (%d/%d)", e.Shard, e.Length, e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }
