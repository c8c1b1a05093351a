/*
Package registry provides a named single-instance registry.

A registry generalizes the single holder to many named instances, each with
the same at-most-once creation guarantee. Creation is serialized per name,
so building the "payments" pool never blocks a caller asking for "search".

Basic usage:

	reg := registry.New()

	pool, err := registry.GetOrCreateAs[*Pool](reg, "payments", func() (*Pool, error) {
		return newPool("payments-db")
	})

Dependency injection:

Set replaces an entry outright, which is how tests and composition roots
inject fakes instead of letting a hardcoded factory run:

	reg.Set("payments", fakePool)
	pool, _ := registry.LookupAs[*Pool](reg, "payments")

A process-wide registry is available through Default, itself created on
first use. Prefer passing a *Registry explicitly; Default exists for code
that genuinely needs one shared composition scope.

Failed factories are not cached: the entry is removed so a later
GetOrCreate may retry.
*/
package registry
