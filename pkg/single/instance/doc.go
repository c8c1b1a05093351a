/*
Package instance provides a generic single-instance holder for Go applications.

A holder guards a value that must be created at most once: the constructor is
hidden behind a factory, a process-wide (or scope-wide) reference is populated
on first access, and all later accesses return the already-created instance
without re-entering the creation path.

Basic usage:

	holder := instance.New(func() (*Config, error) {
		return loadConfig("/etc/app/config.yaml")
	})

	cfg, err := holder.Get() // first caller loads the config
	cfg, err = holder.Get()  // same instance, no reload

Strategies:

The holder supports three serialization strategies for first-time access,
selectable through Config.Strategy:

  - StrategyOnce (default): a deferred-initialization primitive; steady-state
    access is lock-free
  - StrategyMutex: coarse-grained mutual exclusion on every access
  - StrategyDoubleChecked: atomic check before and after acquiring the lock,
    avoiding the lock once initialization has completed

All three are observationally equivalent; they differ only in steady-state
access cost. Benchmarks in this package compare them.

Error handling:

A failed factory either caches its error (the default, matching sync.Once
semantics) or, with Config.RetryOnError, leaves the holder unarmed so a later
Get retries:

	holder := instance.NewWithConfig(instance.Config[*sql.DB]{
		Factory:      openDatabase,
		RetryOnError: true, // transient connect failures retry on next Get
	})

Factory panics are recovered and converted to errors so waiting goroutines
are never deadlocked by a panicking constructor.

Testing and injection:

Reset re-arms the holder and Set populates it eagerly, so tests can inject
fakes instead of depending on a hardcoded instance:

	holder.Reset()
	if err := holder.Set(fakePool); err != nil { ... }

For larger applications, prefer passing the holder (or the instance itself)
as a dependency over package-level globals; the registry package provides
named, overridable holders for that style.

All holder operations are safe for concurrent use: for any number of
concurrent first-time accesses, the factory runs exactly once and every
caller observes the same instance.
*/
package instance
