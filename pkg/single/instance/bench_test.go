package instance

import (
	"testing"
)

// mustNew creates a holder for the given strategy or panics (for benchmarks only)
func mustNew(strategy Strategy) Holder[int] {
	h, err := NewWithConfigSafe(Config[int]{
		Factory:  func() (int, error) { return 42, nil },
		Strategy: strategy,
	})
	if err != nil {
		panic(err)
	}
	return h
}

// BenchmarkGetOnce measures steady-state access cost of the once strategy
func BenchmarkGetOnce(b *testing.B) {
	h := mustNew(StrategyOnce)
	_, _ = h.Get()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = h.Get()
		}
	})
}

// BenchmarkGetMutex measures steady-state access cost of the mutex strategy
func BenchmarkGetMutex(b *testing.B) {
	h := mustNew(StrategyMutex)
	_, _ = h.Get()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = h.Get()
		}
	})
}

// BenchmarkGetDoubleChecked measures steady-state access cost of the
// double-checked locking strategy
func BenchmarkGetDoubleChecked(b *testing.B) {
	h := mustNew(StrategyDoubleChecked)
	_, _ = h.Get()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = h.Get()
		}
	})
}

// BenchmarkPeek measures non-initializing reads
func BenchmarkPeek(b *testing.B) {
	h := mustNew(StrategyOnce)
	_, _ = h.Get()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = h.Peek()
		}
	})
}
