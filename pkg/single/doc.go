/*
Package single provides at-most-once instance creation primitives for Go applications.

This package offers components for managing values that must exist exactly once
within a given scope:

  - instance: Generic single-instance holder with selectable locking strategies
  - registry: Named instance registry with per-name at-most-once creation
  - distributed: Cross-process at-most-once execution coordinated through Redis

Instance Holder:

The holder guards a single instance behind a factory that runs at most once:

	holder := instance.New(func() (*sql.DB, error) {
		return sql.Open("postgres", dsn)
	})

	db, err := holder.Get() // first caller runs the factory
	db, err = holder.Get()  // everyone else gets the same instance

Registry:

The registry manages many named instances with the same guarantee per name:

	reg := registry.New()
	pool, err := registry.GetOrCreateAs[*Pool](reg, "payments", newPaymentsPool)

Distributed Once:

The distributed once extends the guarantee across process boundaries:

	once, _ := distributed.New(distributed.Config{Redis: client, Key: "app:migrate"})
	err := once.Do(ctx, runMigrations) // one instance in the fleet runs this

All components are thread-safe: concurrent first-time accesses construct exactly
one instance, and every caller observes the same instance.
*/
package single
