// Package reconcile keeps a local, offline-first record store consistent with
// a remote, authoritative multi-user store.
//
// A reconciliation pass is driven per scope (collection, principal):
//
//  1. Throttle: skip the pass when the last successful sync of the scope is
//     too recent, unless the pass is forced.
//  2. Fetch: read both snapshots and the tombstone set of the collection.
//  3. Diff: classify the union of identities (create, update, unchanged,
//     suppressed, remote only).
//  4. Apply: upsert the pending results in diff order, one at a time.
//  5. Report: count what happened and advance the sync cursor only when
//     nothing failed.
//
// # Identities
//
// Records are matched across stores by identity, not by store-assigned ids.
// The IdentityResolver derives it from an explicit identifier field, then a
// legacy "<prefix>-<n>" token, then a positional sequence field. Every payload
// written remotely carries the identity in the explicit field so the next pass
// resolves it the same way.
//
// # Policy
//
// The local store wins on every mapped field. Fields absent locally are left
// untouched, and remote-only records are reported but never deleted. Locally
// deleted records are tombstoned and suppressed rather than recreated.
//
// # Usage Example
//
//	driver := reconcile.NewDriver(localStore, remote, ledger,
//	    reconcile.NewThrottle(reconcile.OncePerSession, nil),
//	    lessons.Catalog(),
//	    reconcile.WithLogger(logger),
//	)
//
//	report, err := driver.Run(ctx, reconcile.Pass{Collection: "lessons", Principal: "teacher-1"})
package reconcile
