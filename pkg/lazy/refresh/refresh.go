package refresh

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/golazy/pkg/common/errors"
	"github.com/vnykmshr/golazy/pkg/common/validation"
)

// BuildFunc constructs a fresh instance. It runs once for the initial lazy
// build and again on every scheduled refresh.
type BuildFunc[T any] func(ctx context.Context) (T, error)

// Refresher is a lazily built value that is rebuilt on a cron schedule.
// Readers always observe a complete instance: the swap after a successful
// rebuild is atomic, and a failed rebuild keeps the last good instance.
type Refresher[T any] interface {
	// Get returns the current instance, building it on first call.
	Get(ctx context.Context) (T, error)

	// Peek returns the current instance without triggering a build.
	Peek() (T, bool)

	// Refresh rebuilds the instance immediately. On failure the previous
	// instance is kept and the error is returned.
	Refresh(ctx context.Context) error

	// LastBuilt returns when the current instance was built, or the zero
	// time if nothing has been built yet.
	LastBuilt() time.Time

	// Start begins scheduled refreshes according to the cron spec.
	Start()

	// Stop halts scheduled refreshes. The current instance remains
	// available through Get and Peek.
	Stop()
}

// Config holds configuration options for creating a new Refresher.
type Config[T any] struct {
	// Spec is the cron expression controlling refresh times. Standard
	// 5-field format plus descriptors like "@hourly" are supported.
	Spec string

	// Build constructs the instance. Required.
	Build BuildFunc[T]

	// BuildTimeout bounds each build through its context. Zero means no
	// timeout.
	BuildTimeout time.Duration

	// OnError is invoked when a scheduled refresh fails. Optional.
	OnError func(error)

	// Location is the timezone for cron evaluation. Defaults to time.Local.
	Location *time.Location
}

// snapshot pairs an instance with its build time so both swap atomically.
type snapshot[T any] struct {
	val T
	at  time.Time
}

type refresher[T any] struct {
	config Config[T]

	cur atomic.Pointer[snapshot[T]]

	// mu serializes first-time builds and manual refreshes.
	mu sync.Mutex

	// now stamps snapshots; tests substitute a controllable clock.
	now func() time.Time

	cron    *cron.Cron
	entryID cron.EntryID
	started bool
}

// New creates a refresher for the given cron spec and build function.
func New[T any](spec string, build BuildFunc[T]) (Refresher[T], error) {
	return NewWithConfig(Config[T]{Spec: spec, Build: build})
}

// NewWithConfig creates a refresher from the given config.
func NewWithConfig[T any](config Config[T]) (Refresher[T], error) {
	if err := validation.ValidateNotEmpty("refresh", "spec", config.Spec); err != nil {
		return nil, err
	}
	if config.Build == nil {
		return nil, errors.NewValidationError("refresh", "build", nil, "cannot be nil").
			WithHint("provide a build function that constructs the instance")
	}
	if err := validation.ValidateNonNegativeDuration("refresh", "buildTimeout", config.BuildTimeout); err != nil {
		return nil, err
	}
	if _, err := cron.ParseStandard(config.Spec); err != nil {
		return nil, errors.NewValidationError("refresh", "spec", config.Spec, "not a valid cron expression").
			WithHint(err.Error())
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	r := &refresher[T]{config: config, now: time.Now}
	r.cron = cron.New(cron.WithLocation(config.Location))

	entryID, err := r.cron.AddFunc(config.Spec, r.scheduledRefresh)
	if err != nil {
		return nil, errors.NewOperationError("refresh", "schedule", err)
	}
	r.entryID = entryID

	return r, nil
}

func (r *refresher[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if s := r.cur.Load(); s != nil {
		return s.val, nil
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have built while we waited for the lock.
	if s := r.cur.Load(); s != nil {
		return s.val, nil
	}

	s, err := r.build()
	if err != nil {
		// First build failed and there is nothing stale to fall back on.
		return zero, err
	}
	r.cur.Store(s)
	return s.val, nil
}

func (r *refresher[T]) Peek() (T, bool) {
	if s := r.cur.Load(); s != nil {
		return s.val, true
	}
	var zero T
	return zero, false
}

func (r *refresher[T]) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.build()
	if err != nil {
		return err
	}
	r.cur.Store(s)
	return nil
}

func (r *refresher[T]) LastBuilt() time.Time {
	if s := r.cur.Load(); s != nil {
		return s.at
	}
	return time.Time{}
}

func (r *refresher[T]) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	r.started = true
	r.cron.Start()
}

func (r *refresher[T]) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	// Wait outside the lock: an in-flight scheduled refresh needs the
	// lock to finish.
	<-r.cron.Stop().Done()
}

// scheduledRefresh runs from the cron goroutine. Failures keep the last
// good instance and are reported through OnError.
func (r *refresher[T]) scheduledRefresh() {
	err := r.Refresh(context.Background())
	if err != nil && r.config.OnError != nil {
		r.config.OnError(err)
	}
}

// build runs the build function under its own bounded context. Callers
// must hold r.mu.
func (r *refresher[T]) build() (*snapshot[T], error) {
	ctx := context.Background()
	if r.config.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.BuildTimeout)
		defer cancel()
	}

	val, err := runBuild(ctx, r.config.Build)
	if err != nil {
		return nil, err
	}
	return &snapshot[T]{val: val, at: r.now()}, nil
}

// runBuild executes the build function, converting panics into errors.
func runBuild[T any](ctx context.Context, build BuildFunc[T]) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewOperationError("refresh", "build", fmt.Errorf("panic: %v", r))
		}
	}()
	return build(ctx)
}
