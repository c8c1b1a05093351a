package value

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/golazy/pkg/common/errors"
)

// Factory computes the deferred value. It receives a context detached from
// any individual caller, bounded by Config.InitTimeout when set.
type Factory[T any] func(ctx context.Context) (T, error)

// Value is a deferred computation of a shared value. The factory runs when
// the first caller asks for the value; concurrent callers block until it
// completes and then observe the same result.
type Value[T any] interface {
	// Get returns the value, computing it on first call. Canceling ctx
	// abandons the wait without disturbing an in-flight computation.
	//
	// The caller that triggers the computation runs the factory in its
	// own goroutine and does not return until the factory does; its ctx
	// is not consulted during the run (use Config.InitTimeout to bound
	// the factory itself). Only callers waiting on someone else's
	// computation can abandon early.
	Get(ctx context.Context) (T, error)

	// MustGet returns the value or panics if the computation fails.
	MustGet(ctx context.Context) T

	// Peek returns the value without triggering computation. The second
	// return value reports whether the value exists.
	Peek() (T, bool)

	// Initialized reports whether the value has been computed successfully.
	Initialized() bool

	// Reset discards the value so the factory may run once more.
	Reset()
}

// Config holds configuration options for creating a new Value.
type Config[T any] struct {
	// Factory computes the value. Required.
	Factory Factory[T]

	// InitTimeout bounds a single factory execution through the context
	// passed to it. Zero means no timeout.
	InitTimeout time.Duration

	// RetryOnError controls whether a failed computation is cached (false,
	// the default) or discarded so a later Get retries (true).
	RetryOnError bool
}

// New creates a lazy value. It panics if the factory is nil; use NewSafe
// for error returns.
func New[T any](factory Factory[T]) Value[T] {
	v, err := NewSafe(factory)
	if err != nil {
		panic(err)
	}
	return v
}

// NewSafe creates a lazy value with validation that returns an error instead
// of panicking.
func NewSafe[T any](factory Factory[T]) (Value[T], error) {
	return NewWithConfigSafe(Config[T]{Factory: factory})
}

// NewWithConfig creates a lazy value from the given config. It panics on
// invalid configuration; use NewWithConfigSafe for error returns.
func NewWithConfig[T any](config Config[T]) Value[T] {
	v, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return v
}

// NewWithConfigSafe creates a lazy value from the given config with
// validation that returns an error instead of panicking.
func NewWithConfigSafe[T any](config Config[T]) (Value[T], error) {
	if config.Factory == nil {
		return nil, errors.NewValidationError("value", "factory", nil, "cannot be nil").
			WithHint("provide a factory that computes the value")
	}
	if config.InitTimeout < 0 {
		return nil, errors.NewValidationError("value", "initTimeout", config.InitTimeout, "cannot be negative").
			WithHint("use 0 for no timeout")
	}

	return &lazyValue[T]{config: config}, nil
}

// cell is one arming of the value. The result is written before done is
// closed, so any waiter returning from the select observes it.
type cell[T any] struct {
	done chan struct{}
	val  T
	err  error
}

type lazyValue[T any] struct {
	mu     sync.Mutex
	cur    *cell[T]
	config Config[T]
}

func (v *lazyValue[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	v.mu.Lock()
	c := v.cur
	if c == nil {
		c = &cell[T]{done: make(chan struct{})}
		v.cur = c
		v.mu.Unlock()
		v.compute(c)
	} else {
		v.mu.Unlock()
	}

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// compute runs the factory in the arming caller's goroutine and publishes
// the result. The factory context is detached from the caller so one
// waiter's cancellation cannot abort an initialization others depend on.
func (v *lazyValue[T]) compute(c *cell[T]) {
	initCtx := context.Background()
	if v.config.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(initCtx, v.config.InitTimeout)
		defer cancel()
	}

	c.val, c.err = runFactory(initCtx, v.config.Factory)

	if c.err != nil && v.config.RetryOnError {
		v.mu.Lock()
		if v.cur == c {
			v.cur = nil
		}
		v.mu.Unlock()
	}

	close(c.done)
}

func (v *lazyValue[T]) MustGet(ctx context.Context) T {
	val, err := v.Get(ctx)
	if err != nil {
		panic(err)
	}
	return val
}

func (v *lazyValue[T]) Peek() (T, bool) {
	var zero T

	v.mu.Lock()
	c := v.cur
	v.mu.Unlock()

	if c == nil {
		return zero, false
	}

	select {
	case <-c.done:
		if c.err == nil {
			return c.val, true
		}
		return zero, false
	default:
		return zero, false
	}
}

func (v *lazyValue[T]) Initialized() bool {
	_, ok := v.Peek()
	return ok
}

func (v *lazyValue[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	// An in-flight computation still completes for its waiters; the
	// result is simply not retained for future callers.
	v.cur = nil
}

// runFactory executes the factory, converting panics into errors so a
// panicking computation cannot leave waiters deadlocked.
func runFactory[T any](ctx context.Context, factory Factory[T]) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewOperationError("value", "factory", fmt.Errorf("panic: %v", r))
		}
	}()
	return factory(ctx)
}
