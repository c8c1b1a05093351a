/*
Package golazy provides single-instance and lazy-initialization primitives
for concurrent Go applications.

Single-Instance Holders (pkg/single):
  - instance: Generic at-most-once holder with once, mutex, and
    double-checked strategies
  - registry: Named instance registry with per-name creation and overrides
  - distributed: Cross-process at-most-once execution with Redis

Lazy Initialization (pkg/lazy):
  - value: Context-aware deferred computation of a shared value
  - refresh: Lazily built values rebuilt on a cron schedule

Example usage:

	import (
		"github.com/vnykmshr/golazy/pkg/lazy/value"
		"github.com/vnykmshr/golazy/pkg/single/instance"
	)

	holder, _ := instance.NewSafe(openPool) // factory runs at most once
	pool, err := holder.Get()

	cfg := value.New(loadConfig) // deferred until first Get
	snapshot, err := cfg.Get(ctx)

All primitives guarantee that concurrent first-time accesses construct
exactly one instance and that every caller observes the same instance.
*/
package golazy
