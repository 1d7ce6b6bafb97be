package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, 5*time.Second), srv
}

func TestAcquireAndRelease(t *testing.T) {
	locker, srv := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !srv.Exists("lock:lead:31619255082") {
		t.Fatal("expected lock key to exist while held")
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if srv.Exists("lock:lead:31619255082") {
		t.Fatal("expected lock key to be gone after release")
	}
}

func TestTryAcquireContended(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.TryAcquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer lease.Release(ctx)

	if _, err := locker.TryAcquire(ctx, "31619255082"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	// A different identity is unaffected.
	other, err := locker.TryAcquire(ctx, "31610000000")
	if err != nil {
		t.Fatalf("independent identity: %v", err)
	}
	_ = other.Release(ctx)
}

func TestAcquireWaitsForRelease(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		second, err := locker.Acquire(ctx, "31619255082")
		if err == nil {
			_ = second.Release(ctx)
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second acquire: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire did not complete after release")
	}
}

func TestAcquireRespectsContext(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release(ctx)

	cancelled, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	if _, err := locker.Acquire(cancelled, "31619255082"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestStaleLeaseCannotReleaseNewLock(t *testing.T) {
	locker, srv := newTestLocker(t)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate TTL expiry and another worker taking the lock.
	srv.FastForward(10 * time.Second)
	fresh, err := locker.TryAcquire(ctx, "31619255082")
	if err != nil {
		t.Fatalf("reacquire after expiry: %v", err)
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !srv.Exists("lock:lead:31619255082") {
		t.Fatal("stale lease must not release a lock it no longer owns")
	}
	_ = fresh.Release(ctx)
}
