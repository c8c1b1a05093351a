/*
Package value provides a context-aware deferred-initialization wrapper.

A Value postpones an expensive computation until first use. The first Get
runs the factory; concurrent callers block until it completes and then
observe the same result. A caller that cancels its context abandons only
its own wait: the in-flight computation continues for everyone else.

Basic usage:

	cfg := value.New(func(ctx context.Context) (*Config, error) {
		return fetchConfig(ctx, configURL)
	})

	snapshot, err := cfg.Get(ctx)

The factory runs under a context detached from any individual caller,
bounded by Config.InitTimeout when set. Failed computations cache their
error by default; set Config.RetryOnError to discard failures so a later
Get retries.
*/
package value
