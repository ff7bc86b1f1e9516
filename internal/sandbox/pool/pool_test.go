package pool

import (
	"context"
	"testing"
	"time"

	appErr "runbox/pkg/errors"
)

func TestAcquireRelease(t *testing.T) {
	p := New(2)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if p.InUse() != 2 {
		t.Fatalf("expected 2 slots in use, got %d", p.InUse())
	}

	p.Release()
	if p.InUse() != 1 {
		t.Fatalf("expected 1 slot in use after release, got %d", p.InUse())
	}
}

func TestAcquireRejectsWhenFull(t *testing.T) {
	p := NewWithWait(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	err := p.Acquire(ctx)
	if err == nil {
		t.Fatalf("expected rejection when pool is full")
	}
	if !appErr.Is(err, appErr.WorkerPoolFull) {
		t.Fatalf("expected WorkerPoolFull, got %v", err)
	}
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	p := NewWithWait(1, time.Minute)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Acquire(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTryAcquire(t *testing.T) {
	p := New(1)
	if !p.TryAcquire() {
		t.Fatalf("try acquire on empty pool should succeed")
	}
	if p.TryAcquire() {
		t.Fatalf("try acquire on full pool should fail")
	}
	p.Release()
	if !p.TryAcquire() {
		t.Fatalf("try acquire after release should succeed")
	}
}

func TestSlotFreedAfterRelease(t *testing.T) {
	p := NewWithWait(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.Release()
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}
