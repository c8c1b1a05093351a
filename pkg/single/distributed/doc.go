/*
Package distributed provides cross-process at-most-once execution using
Redis as the coordination backend.

A process-local once guards a single process. When several instances of an
application race to perform the same initialization (schema migrations,
seed data, cache warmup), the guarantee has to hold across the fleet. This
package extends it with a Redis claim protocol:

 1. An instance atomically checks the completion marker and, if the work
    is unclaimed, takes the claim.
 2. The winner runs the function and publishes the completion marker.
 3. Losers poll until the marker appears, bounded by their context.
 4. A crashed winner's claim expires after ClaimTTL, so another instance
    can retry instead of waiting forever.

Basic usage:

	once, err := distributed.New(distributed.Config{
		Redis: redisClient,
		Key:   "app:migrations:v42",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer once.Close()

	err = once.Do(ctx, func(ctx context.Context) error {
		return runMigrations(ctx)
	})

All claim transitions run as atomic Lua scripts, so no instance can ever
observe a state where the claim is gone but the work is not marked done.

When Redis is unreachable and Config.FallbackToLocal is set, the once
degrades to process-local semantics: the function still runs at most once
in this process, but other instances may run it too. Disable the fallback
when a duplicate run is worse than a failed one.

Failed executions release the claim immediately, so another instance (or
a later call on this one) retries without waiting for the TTL. A function
that must never run twice should be idempotent anyway; the claim protocol
minimizes duplicate runs, and the completion marker prevents them entirely
once one run succeeds.
*/
package distributed
