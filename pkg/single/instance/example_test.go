package instance_test

import (
	"fmt"

	"github.com/vnykmshr/golazy/pkg/single/instance"
)

// Example demonstrates basic usage of the single-instance holder
func Example() {
	// The factory runs at most once, no matter how many callers race on Get
	holder := instance.New(func() (string, error) {
		fmt.Println("constructing")
		return "shared instance", nil
	})

	v, _ := holder.Get()
	fmt.Println(v)

	// Second access returns the same instance without re-construction
	v, _ = holder.Get()
	fmt.Println(v)

	// Output:
	// constructing
	// shared instance
	// shared instance
}

// Example_strategies demonstrates selecting a serialization strategy
func Example_strategies() {
	holder := instance.NewWithConfig(instance.Config[int]{
		Factory:  func() (int, error) { return 42, nil },
		Strategy: instance.StrategyDoubleChecked,
	})

	v, _ := holder.Get()
	fmt.Println(v)

	// Output: 42
}

// Example_injection demonstrates overriding the instance for tests
func Example_injection() {
	holder := instance.New(func() (string, error) {
		return "real database", nil
	})

	// A test can re-arm the holder and inject a fake before anything
	// touches the real factory
	holder.Reset()
	if err := holder.Set("fake database"); err != nil {
		panic(err)
	}

	v, _ := holder.Get()
	fmt.Println(v)

	// Output: fake database
}

// Example_retryOnError demonstrates retrying a failed initialization
func Example_retryOnError() {
	attempts := 0
	holder := instance.NewWithConfig(instance.Config[string]{
		Factory: func() (string, error) {
			attempts++
			if attempts == 1 {
				return "", fmt.Errorf("transient failure")
			}
			return "connected", nil
		},
		RetryOnError: true,
	})

	if _, err := holder.Get(); err != nil {
		fmt.Println("first attempt:", err)
	}

	v, _ := holder.Get()
	fmt.Println("second attempt:", v)

	// Output:
	// first attempt: transient failure
	// second attempt: connected
}
