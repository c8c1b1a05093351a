package value

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/golazy/internal/testutil"
	glerrors "github.com/vnykmshr/golazy/pkg/common/errors"
)

func TestNewSafe(t *testing.T) {
	t.Run("nil factory", func(t *testing.T) {
		v, err := NewSafe[int](nil)
		testutil.AssertError(t, err)
		if v != nil {
			t.Error("expected nil value on error")
		}
		if !glerrors.IsValidationError(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
	})

	t.Run("negative timeout", func(t *testing.T) {
		_, err := NewWithConfigSafe(Config[int]{
			Factory:     func(context.Context) (int, error) { return 1, nil },
			InitTimeout: -time.Second,
		})
		testutil.AssertError(t, err)
	})

	t.Run("valid config", func(t *testing.T) {
		v, err := NewSafe(func(context.Context) (int, error) { return 1, nil })
		testutil.AssertNoError(t, err)
		if v == nil {
			t.Fatal("expected non-nil value")
		}
	})
}

func TestGetComputesOnce(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cf := &testutil.CountingFactory{}
	v := New(cf.ContextFactory())

	for i := 0; i < 10; i++ {
		got, err := v.Get(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, got, 1)
	}
	testutil.AssertEqual(t, cf.Calls(), int64(1))
}

func TestConcurrentFirstAccess(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cf := &testutil.CountingFactory{Delay: 5 * time.Millisecond}
	v := New(cf.ContextFactory())

	const goroutines = 100
	values := make([]int, goroutines)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got, err := v.Get(ctx)
			if err != nil {
				t.Errorf("goroutine %d: unexpected error: %v", idx, err)
				return
			}
			values[idx] = got
		}(i)
	}
	wg.Wait()

	testutil.AssertEqual(t, cf.Calls(), int64(1))
	for i, got := range values {
		if got != values[0] {
			t.Fatalf("goroutine %d observed %d, others observed %d", i, got, values[0])
		}
	}
}

func TestWaiterCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	v := New(func(context.Context) (int, error) {
		close(started)
		<-release
		return 42, nil
	})

	// First caller arms the computation and blocks in the factory.
	go func() {
		_, _ = v.Get(context.Background())
	}()
	<-started

	// A waiter with a canceled context abandons the wait immediately.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Get(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	// The in-flight computation was not disturbed.
	close(release)
	got, err := v.Get(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 42)
}

func TestInitTimeout(t *testing.T) {
	v := NewWithConfig(Config[int]{
		Factory: func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Second):
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		},
		InitTimeout: 20 * time.Millisecond,
	})

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	_, err := v.Get(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestErrorCaching(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	cf := &testutil.CountingFactory{Err: boom}
	v := New(cf.ContextFactory())

	for i := 0; i < 5; i++ {
		_, err := v.Get(ctx)
		if !errors.Is(err, boom) {
			t.Fatalf("got %v, want boom", err)
		}
	}
	testutil.AssertEqual(t, cf.Calls(), int64(1))
	testutil.AssertEqual(t, v.Initialized(), false)
}

func TestRetryOnError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	var mu sync.Mutex
	calls := 0

	v := NewWithConfig(Config[int]{
		Factory: func(context.Context) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return 0, boom
			}
			return calls, nil
		},
		RetryOnError: true,
	})

	_, err := v.Get(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	got, err := v.Get(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 2)

	// The successful value is now permanent.
	got, err = v.Get(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, 2)
}

func TestPeekDoesNotCompute(t *testing.T) {
	cf := &testutil.CountingFactory{}
	v := New(cf.ContextFactory())

	if _, ok := v.Peek(); ok {
		t.Error("Peek on empty value should report false")
	}
	testutil.AssertEqual(t, cf.Calls(), int64(0))

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	_, err := v.Get(ctx)
	testutil.AssertNoError(t, err)

	got, ok := v.Peek()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, got, 1)
}

func TestReset(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cf := &testutil.CountingFactory{}
	v := New(cf.ContextFactory())

	got, _ := v.Get(ctx)
	testutil.AssertEqual(t, got, 1)

	v.Reset()
	testutil.AssertEqual(t, v.Initialized(), false)

	got, _ = v.Get(ctx)
	testutil.AssertEqual(t, got, 2)
	testutil.AssertEqual(t, cf.Calls(), int64(2))
}

func TestFactoryPanic(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v := New(func(context.Context) (int, error) {
		panic("computation exploded")
	})

	_, err := v.Get(ctx)
	testutil.AssertError(t, err)

	// Later callers get the cached error, not a deadlock.
	_, err = v.Get(ctx)
	testutil.AssertError(t, err)
}

func TestMustGet(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v := New(func(context.Context) (string, error) { return "ready", nil })
	testutil.AssertEqual(t, v.MustGet(ctx), "ready")

	failing := New(func(context.Context) (string, error) { return "", errors.New("nope") })
	defer func() {
		if recover() == nil {
			t.Error("MustGet should panic on factory error")
		}
	}()
	failing.MustGet(ctx)
}

func TestPreCanceledContext(t *testing.T) {
	cf := &testutil.CountingFactory{}
	v := New(cf.ContextFactory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Get(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	// A pre-canceled caller must not arm the computation.
	testutil.AssertEqual(t, cf.Calls(), int64(0))
}
