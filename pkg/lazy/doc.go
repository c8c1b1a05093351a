/*
Package lazy provides deferred-initialization primitives for Go applications.

This package offers components for values whose creation is postponed until
first use:

  - value: Context-aware deferred computation of a shared value
  - refresh: Lazily built values rebuilt on a cron schedule

Lazy Value:

The value wrapper defers an expensive computation until someone asks for it:

	cfg := value.New(func(ctx context.Context) (*Config, error) {
		return fetchConfig(ctx, configURL)
	})

	snapshot, err := cfg.Get(ctx) // first caller fetches
	snapshot, err = cfg.Get(ctx)  // cached afterwards

Refreshing Value:

The refresher rebuilds a lazily created value on a schedule, keeping the
last good instance when a rebuild fails:

	certs, _ := refresh.New("@hourly", loadCertPool)
	certs.Start()
	defer certs.Stop()

	pool, err := certs.Get(ctx)

Both components guarantee that concurrent first-time accesses run the build
function exactly once and observe the same result.
*/
package lazy
