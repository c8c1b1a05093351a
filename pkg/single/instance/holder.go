package instance

import (
	"fmt"

	"github.com/vnykmshr/golazy/pkg/common/errors"
)

// Factory constructs the guarded instance. It runs at most once per armed
// holder, regardless of how many goroutines call Get concurrently.
type Factory[T any] func() (T, error)

// Holder guards a single instance of T. The instance is created lazily by
// the factory on first access, and every subsequent access returns the same
// instance without re-entering the creation path.
type Holder[T any] interface {
	// Get returns the instance, creating it on first call. Concurrent
	// first-time callers block until creation completes and then observe
	// the same instance.
	Get() (T, error)

	// MustGet returns the instance or panics if creation fails.
	MustGet() T

	// Peek returns the instance without triggering creation. The second
	// return value reports whether the instance exists.
	Peek() (T, bool)

	// Set populates the holder eagerly. It returns ErrAlreadyInitialized
	// if an instance already exists.
	Set(value T) error

	// Initialized reports whether the instance has been created.
	Initialized() bool

	// Reset discards the instance and re-arms the holder so the factory
	// may run once more. Intended for tests and controlled reloads.
	Reset()
}

// Strategy selects how first-time access to the holder is serialized.
type Strategy int

const (
	// StrategyOnce uses a deferred-initialization primitive. Steady-state
	// access is lock-free. This is the default.
	StrategyOnce Strategy = iota

	// StrategyMutex acquires a mutex on every access. The textbook
	// coarse-grained variant; simplest to reason about.
	StrategyMutex

	// StrategyDoubleChecked checks an atomic pointer before and after
	// acquiring the lock, so steady-state access avoids locking entirely.
	StrategyDoubleChecked
)

// String returns the strategy name used in logs and metric labels.
func (s Strategy) String() string {
	switch s {
	case StrategyOnce:
		return "once"
	case StrategyMutex:
		return "mutex"
	case StrategyDoubleChecked:
		return "double_checked"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config holds configuration options for creating a new Holder.
type Config[T any] struct {
	// Factory constructs the instance. Required.
	Factory Factory[T]

	// Strategy selects the serialization variant. Defaults to StrategyOnce.
	Strategy Strategy

	// RetryOnError controls what happens when the factory fails. When false,
	// the error is cached and returned to all callers forever. When true,
	// the holder stays unarmed so a later Get may retry the factory.
	RetryOnError bool
}

// New creates a holder with the default strategy. It panics if the factory
// is nil; use NewSafe for error returns.
func New[T any](factory Factory[T]) Holder[T] {
	h, err := NewSafe(factory)
	if err != nil {
		panic(err)
	}
	return h
}

// NewSafe creates a holder with validation that returns an error instead of
// panicking. This is the recommended way to create holders for production use.
func NewSafe[T any](factory Factory[T]) (Holder[T], error) {
	return NewWithConfigSafe(Config[T]{Factory: factory})
}

// NewWithConfig creates a holder from the given config. It panics on invalid
// configuration; use NewWithConfigSafe for error returns.
func NewWithConfig[T any](config Config[T]) Holder[T] {
	h, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return h
}

// NewWithConfigSafe creates a holder from the given config with validation
// that returns an error instead of panicking.
func NewWithConfigSafe[T any](config Config[T]) (Holder[T], error) {
	if config.Factory == nil {
		return nil, errors.NewValidationError("instance", "factory", nil, "cannot be nil").
			WithHint("provide a factory that constructs the instance")
	}

	switch config.Strategy {
	case StrategyOnce:
		h := &onceHolder[T]{config: config}
		h.cell.Store(new(onceCell[T]))
		return h, nil
	case StrategyMutex:
		return &mutexHolder[T]{config: config}, nil
	case StrategyDoubleChecked:
		return &doubleCheckedHolder[T]{config: config}, nil
	default:
		return nil, errors.NewValidationError("instance", "strategy", config.Strategy, "unknown strategy").
			WithHint("use StrategyOnce, StrategyMutex, or StrategyDoubleChecked")
	}
}

// result holds a completed factory outcome.
type result[T any] struct {
	val T
	err error
}

// runFactory executes the factory, converting panics into errors so a
// panicking factory cannot leave waiters deadlocked.
func runFactory[T any](factory Factory[T]) (res result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res.err = errors.NewOperationError("instance", "factory", fmt.Errorf("panic: %v", r))
		}
	}()
	res.val, res.err = factory()
	return res
}
