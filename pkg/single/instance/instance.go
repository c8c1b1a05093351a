package instance

import (
	"sync"
	"sync/atomic"

	"github.com/vnykmshr/golazy/pkg/common/errors"
)

// onceHolder implements Holder using a sync.Once per arming. Reset swaps in
// a fresh cell, so the once can fire again without violating the at-most-once
// guarantee for the previous arming.
type onceHolder[T any] struct {
	cell   atomic.Pointer[onceCell[T]]
	config Config[T]
}

// onceCell is one arming of the holder. The result pointer is published
// inside the once, so any caller returning from Do observes it.
type onceCell[T any] struct {
	once sync.Once
	res  atomic.Pointer[result[T]]
}

func (h *onceHolder[T]) Get() (T, error) {
	c := h.cell.Load()

	c.once.Do(func() {
		r := runFactory(h.config.Factory)
		if r.err != nil && h.config.RetryOnError {
			// Leave the failed outcome visible to this arming but swap in
			// a fresh cell so the next Get retries the factory.
			h.cell.CompareAndSwap(c, new(onceCell[T]))
		}
		c.res.Store(&r)
	})

	r := c.res.Load()
	return r.val, r.err
}

func (h *onceHolder[T]) MustGet() T {
	return mustGet[T](h)
}

func (h *onceHolder[T]) Peek() (T, bool) {
	if r := h.cell.Load().res.Load(); r != nil && r.err == nil {
		return r.val, true
	}
	var zero T
	return zero, false
}

func (h *onceHolder[T]) Set(value T) error {
	c := h.cell.Load()

	applied := false
	c.once.Do(func() {
		c.res.Store(&result[T]{val: value})
		applied = true
	})

	if !applied {
		return errors.ErrAlreadyInitialized
	}
	return nil
}

func (h *onceHolder[T]) Initialized() bool {
	r := h.cell.Load().res.Load()
	return r != nil && r.err == nil
}

func (h *onceHolder[T]) Reset() {
	h.cell.Store(new(onceCell[T]))
}

// mutexHolder implements Holder with coarse-grained mutual exclusion:
// every access acquires the lock, including steady-state reads.
type mutexHolder[T any] struct {
	mu     sync.Mutex
	config Config[T]
	res    *result[T]
}

func (h *mutexHolder[T]) Get() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.res == nil {
		r := runFactory(h.config.Factory)
		if r.err != nil && h.config.RetryOnError {
			var zero T
			return zero, r.err
		}
		h.res = &r
	}
	return h.res.val, h.res.err
}

func (h *mutexHolder[T]) MustGet() T {
	return mustGet[T](h)
}

func (h *mutexHolder[T]) Peek() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.res != nil && h.res.err == nil {
		return h.res.val, true
	}
	var zero T
	return zero, false
}

func (h *mutexHolder[T]) Set(value T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.res != nil {
		return errors.ErrAlreadyInitialized
	}
	h.res = &result[T]{val: value}
	return nil
}

func (h *mutexHolder[T]) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.res != nil && h.res.err == nil
}

func (h *mutexHolder[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.res = nil
}

// doubleCheckedHolder implements Holder with the double-checked locking
// variant: an atomic load on the fast path, and a second check under the
// lock so racing first-time callers cannot both run the factory.
type doubleCheckedHolder[T any] struct {
	res    atomic.Pointer[result[T]]
	mu     sync.Mutex
	config Config[T]
}

func (h *doubleCheckedHolder[T]) Get() (T, error) {
	// First check: lock-free fast path once initialized.
	if r := h.res.Load(); r != nil {
		return r.val, r.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Second check: another goroutine may have initialized while we
	// waited for the lock.
	if r := h.res.Load(); r != nil {
		return r.val, r.err
	}

	r := runFactory(h.config.Factory)
	if r.err != nil && h.config.RetryOnError {
		var zero T
		return zero, r.err
	}
	h.res.Store(&r)
	return r.val, r.err
}

func (h *doubleCheckedHolder[T]) MustGet() T {
	return mustGet[T](h)
}

func (h *doubleCheckedHolder[T]) Peek() (T, bool) {
	if r := h.res.Load(); r != nil && r.err == nil {
		return r.val, true
	}
	var zero T
	return zero, false
}

func (h *doubleCheckedHolder[T]) Set(value T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.res.Load() != nil {
		return errors.ErrAlreadyInitialized
	}
	h.res.Store(&result[T]{val: value})
	return nil
}

func (h *doubleCheckedHolder[T]) Initialized() bool {
	r := h.res.Load()
	return r != nil && r.err == nil
}

func (h *doubleCheckedHolder[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.res.Store(nil)
}

// mustGet implements MustGet on top of Get for all holder variants.
func mustGet[T any](h Holder[T]) T {
	v, err := h.Get()
	if err != nil {
		panic(err)
	}
	return v
}
