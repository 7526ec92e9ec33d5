package asyncexecutor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestShardPoolSubmitAndBarrier(t *testing.T) {
	p := NewShardPool(Config{Shards: 2, QueueSize: 4, EnqueueTimeout: 50 * time.Millisecond})
	defer p.Stop()

	var ran int32
	err := p.Submit(context.Background(), "fingerprint-1", JobFunc(func(context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := p.Barrier(context.Background(), "fingerprint-1"); err != nil {
		t.Fatalf("Barrier failed: %v", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected job to have run once, ran=%d", ran)
	}
}

func TestShardPoolRejectsAfterStop(t *testing.T) {
	p := NewShardPool(Config{Shards: 1, QueueSize: 1})
	p.Stop()

	err := p.Submit(context.Background(), "k", JobFunc(func(context.Context) error { return nil }))
	if err != ErrExecutorClosed {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}

func TestShardPoolQueueFull(t *testing.T) {
	p := NewShardPool(Config{Shards: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond})
	defer p.Stop()

	block := make(chan struct{})
	_ = p.Submit(context.Background(), "k", JobFunc(func(context.Context) error {
		<-block
		return nil
	}))
	_ = p.Submit(context.Background(), "k", JobFunc(func(context.Context) error { return nil }))

	err := p.Submit(context.Background(), "k", JobFunc(func(context.Context) error { return nil }))
	close(block)
	if err == nil {
		t.Fatalf("expected queue-full error")
	}
	var qfe *QueueFullError
	if !okAsQueueFull(err, &qfe) {
		t.Fatalf("expected *QueueFullError, got %T: %v", err, err)
	}
}

func okAsQueueFull(err error, target **QueueFullError) bool {
	if qfe, ok := err.(*QueueFullError); ok {
		*target = qfe
		return true
	}
	return false
}
