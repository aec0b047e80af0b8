package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_SubmitRunsTask(t *testing.T) {
	var ran atomic.Int32
	pool := NewPool(2, time.Second, nil)

	if err := pool.Submit(context.Background(), "count", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	pool.Wait()

	if ran.Load() != 1 {
		t.Errorf("task ran %d times, want 1", ran.Load())
	}
}

func TestPool_ObserverReceivesResult(t *testing.T) {
	var mu sync.Mutex
	results := map[string]error{}
	pool := NewPool(2, time.Second, func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[name] = err
	})

	wantErr := errors.New("store failed")
	_ = pool.Submit(context.Background(), "ok", func(ctx context.Context) error { return nil })
	_ = pool.Submit(context.Background(), "bad", func(ctx context.Context) error { return wantErr })
	_ = pool.Submit(context.Background(), "panics", func(ctx context.Context) error { panic("boom") })
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	if err, ok := results["ok"]; !ok || err != nil {
		t.Errorf("ok result = %v (seen %v), want nil", err, ok)
	}
	if !errors.Is(results["bad"], wantErr) {
		t.Errorf("bad result = %v, want %v", results["bad"], wantErr)
	}
	if results["panics"] == nil {
		t.Error("panicking task should report an error")
	}
}

func TestPool_TaskOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var taskErr error
	pool := NewPool(1, time.Second, func(name string, err error) { taskErr = err })

	_ = pool.Submit(ctx, "detached", func(ctx context.Context) error {
		<-release
		return ctx.Err()
	})
	cancel()
	close(release)
	pool.Wait()

	if taskErr != nil {
		t.Errorf("task context was cancelled with caller: %v", taskErr)
	}
}

func TestPool_TimeoutApplied(t *testing.T) {
	var taskErr error
	pool := NewPool(1, 20*time.Millisecond, func(name string, err error) { taskErr = err })

	_ = pool.Submit(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	pool.Wait()

	if !errors.Is(taskErr, context.DeadlineExceeded) {
		t.Errorf("task error = %v, want deadline exceeded", taskErr)
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const limit = 2
	var current, peak atomic.Int32
	pool := NewPool(limit, time.Second, nil)

	for i := 0; i < 10; i++ {
		_ = pool.Submit(context.Background(), "work", func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return nil
		})
	}
	pool.Wait()

	if peak.Load() > limit {
		t.Errorf("peak concurrency = %d, want <= %d", peak.Load(), limit)
	}
}

func TestPool_SubmitDoesNotBlock(t *testing.T) {
	pool := NewPool(1, time.Second, nil)
	block := make(chan struct{})

	_ = pool.Submit(context.Background(), "hold", func(ctx context.Context) error {
		<-block
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = pool.Submit(context.Background(), "queued", func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit() blocked while the pool was saturated")
	}
	close(block)
	pool.Wait()
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(1, time.Second, nil)
	release := make(chan struct{})
	_ = pool.Submit(context.Background(), "pending", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() with pending task = %v, want deadline exceeded", err)
	}

	if err := pool.Submit(context.Background(), "late", func(ctx context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Shutdown = %v, want ErrClosed", err)
	}

	close(release)
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() after drain = %v, want nil", err)
	}
}
