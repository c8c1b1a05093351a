package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockClock implements a Clock interface for testing with controllable time.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// CountingFactory builds factories that count their invocations. It is used
// by the exactly-once property tests to verify that concurrent first accesses
// construct a single instance.
type CountingFactory struct {
	calls int64

	// Delay simulates slow construction, widening the race window.
	Delay time.Duration

	// Err, when non-nil, is returned by the factory instead of a value.
	Err error
}

// Calls returns the number of times the factory has run.
func (f *CountingFactory) Calls() int64 {
	return atomic.LoadInt64(&f.calls)
}

// Factory returns a func() (int, error) that counts invocations and returns
// the invocation ordinal as the constructed value.
func (f *CountingFactory) Factory() func() (int, error) {
	return func() (int, error) {
		n := atomic.AddInt64(&f.calls, 1)
		if f.Delay > 0 {
			time.Sleep(f.Delay)
		}
		if f.Err != nil {
			return 0, f.Err
		}
		return int(n), nil
	}
}

// ContextFactory returns a context-aware variant of Factory.
func (f *CountingFactory) ContextFactory() func(context.Context) (int, error) {
	inner := f.Factory()
	return func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return inner()
	}
}
