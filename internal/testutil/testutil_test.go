package testutil

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var flag int32
		go func() {
			time.Sleep(20 * time.Millisecond)
			atomic.StoreInt32(&flag, 1)
		}()

		Eventually(t, func() bool {
			return atomic.LoadInt32(&flag) == 1
		}, time.Second, 5*time.Millisecond)
	})
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	AssertEqual(t, clock.Now(), start)

	clock.Advance(time.Hour)
	AssertEqual(t, clock.Now(), start.Add(time.Hour))

	clock.Set(start)
	AssertEqual(t, clock.Now(), start)
}

func TestCountingFactory(t *testing.T) {
	cf := &CountingFactory{}
	factory := cf.Factory()

	v, err := factory()
	AssertNoError(t, err)
	AssertEqual(t, v, 1)
	AssertEqual(t, cf.Calls(), int64(1))

	v, err = factory()
	AssertNoError(t, err)
	AssertEqual(t, v, 2)
	AssertEqual(t, cf.Calls(), int64(2))
}

func TestCountingFactoryConcurrent(t *testing.T) {
	cf := &CountingFactory{}
	factory := cf.Factory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = factory()
		}()
	}
	wg.Wait()

	AssertEqual(t, cf.Calls(), int64(50))
}
