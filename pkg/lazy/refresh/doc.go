/*
Package refresh provides a lazily built value rebuilt on a cron schedule.

Some shared instances go stale: configuration snapshots, certificate pools,
pooled clients with rotating credentials. A Refresher keeps such an instance
available with single-instance semantics while rebuilding it in the
background on a schedule.

Basic usage:

	certs, err := refresh.New("@hourly", func(ctx context.Context) (*x509.CertPool, error) {
		return loadCertPool(ctx)
	})
	if err != nil {
		log.Fatal(err)
	}

	certs.Start()
	defer certs.Stop()

	pool, err := certs.Get(ctx) // lazy first build, then cached

Failed rebuilds keep the last good instance and report through
Config.OnError, so readers never observe a regression from a transient
build failure. The swap after a successful rebuild is atomic.

Cron expressions use the standard 5-field format plus descriptors such as
"@hourly" and "@every 10m", evaluated in Config.Location.
*/
package refresh
