package distributed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/golazy/internal/testutil"
)

// unreachableOnce builds a Once whose Redis client points at a closed port,
// forcing every operation onto the local fallback path.
func unreachableOnce(t *testing.T) Once {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	once, err := New(Config{
		Redis:           client,
		Key:             "test:fallback",
		RedisTimeout:    100 * time.Millisecond,
		FallbackToLocal: true,
	})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = once.Close() })
	return once
}

func TestValidateConfig(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer func() { _ = client.Close() }()

	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{"valid", Config{Redis: client, Key: "test:once"}, false},
		{"missing redis", Config{Key: "test:once"}, true},
		{"missing key", Config{Redis: client}, true},
		{"negative ttl", Config{Redis: client, Key: "k", ClaimTTL: -time.Second}, true},
		{"negative poll", Config{Redis: client, Key: "k", PollInterval: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)

			if tt.wantError {
				testutil.AssertError(t, err)
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigError, got %T", err)
				}
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	config := applyConfigDefaults(Config{Key: "test"})

	if config.InstanceID == "" {
		t.Error("expected generated instance ID")
	}
	testutil.AssertEqual(t, config.ClaimTTL, 30*time.Second)
	testutil.AssertEqual(t, config.RedisTimeout, 500*time.Millisecond)
	testutil.AssertEqual(t, config.PollInterval, 100*time.Millisecond)
	testutil.AssertEqual(t, config.KeyTTL, 24*time.Hour)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.InstanceID == "" {
		t.Error("expected generated instance ID")
	}
	if !config.FallbackToLocal {
		t.Error("fallback should default to enabled")
	}
}

func TestGenerateInstanceID(t *testing.T) {
	a := generateInstanceID()
	b := generateInstanceID()

	if a == "" || b == "" {
		t.Fatal("instance IDs should not be empty")
	}
	if a == b {
		t.Error("instance IDs should be unique")
	}
}

func TestOnceKeys(t *testing.T) {
	keys := onceKeys("app:migrate")

	for _, field := range []string{"done", "claim", "stats", "instances"} {
		key, ok := keys[field]
		if !ok {
			t.Fatalf("missing key for %q", field)
		}
		if !strings.HasPrefix(key, "app:migrate:") {
			t.Errorf("key %q does not carry the prefix", key)
		}
	}
}

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"0", 0},
		{"", 0},
		{"not a number", 0},
		{"-3", -3},
	}

	for _, tt := range tests {
		testutil.AssertEqual(t, parseCounter(tt.in), tt.want)
	}
}

func TestNewUnreachableRedisWithoutFallback(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	_, err := New(Config{
		Redis:        client,
		Key:          "test:no-fallback",
		RedisTimeout: 100 * time.Millisecond,
	})
	testutil.AssertError(t, err)

	var redisErr *RedisError
	if !errors.As(err, &redisErr) {
		t.Errorf("expected RedisError, got %T", err)
	}
}

func TestFallbackRunsFunctionOnce(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	once := unreachableOnce(t)

	var runs int64
	fn := func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	}

	testutil.AssertNoError(t, once.Do(ctx, fn))
	testutil.AssertNoError(t, once.Do(ctx, fn))
	testutil.AssertEqual(t, atomic.LoadInt64(&runs), int64(1))
}

func TestFallbackFailureIsRetried(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	once := unreachableOnce(t)
	boom := errors.New("boom")

	if err := once.Do(ctx, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	// The failure must not be cached as completion; the next Do retries,
	// just as the Redis path releases the claim after a failed fn.
	var runs int64
	fn := func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	}
	testutil.AssertNoError(t, once.Do(ctx, fn))
	testutil.AssertEqual(t, atomic.LoadInt64(&runs), int64(1))

	// And the success is now permanent.
	testutil.AssertNoError(t, once.Do(ctx, fn))
	testutil.AssertEqual(t, atomic.LoadInt64(&runs), int64(1))
}

func TestFallbackConcurrentDo(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	once := unreachableOnce(t)

	var runs int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := once.Do(ctx, func(context.Context) error {
				atomic.AddInt64(&runs, 1)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, atomic.LoadInt64(&runs), int64(1))
}

func TestDoNilFunction(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	once := unreachableOnce(t)

	err := once.Do(ctx, nil)
	testutil.AssertError(t, err)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestDoAfterClose(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	once := unreachableOnce(t)
	testutil.AssertNoError(t, once.Close())

	err := once.Do(ctx, func(context.Context) error { return nil })
	testutil.AssertError(t, err)
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{"key is required"}
	testutil.AssertEqual(t, err.Error(), "distributed once config error: key is required")
}

func TestRedisErrorUnwrap(t *testing.T) {
	cause := &ConfigError{"inner"}
	err := &RedisError{Operation: "claim", Err: cause}

	if !strings.Contains(err.Error(), "claim") {
		t.Errorf("error %q should mention the operation", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}
