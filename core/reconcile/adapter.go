package reconcile

import "context"

// RecordStore is the uniform interface over either backing store.
// Implementations must apply a single Upsert atomically and must not cache
// across calls; callers own any in-memory caching.
type RecordStore interface {
	// List returns every record of the collection. Errors are *StoreError.
	List(ctx context.Context, collection string) ([]Record, error)

	// Upsert creates or replaces the record with rec.Identity. Applying the
	// same record twice must converge to a single stored record.
	Upsert(ctx context.Context, collection string, rec Record) error

	// Delete removes the record with the given identity. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, collection, identity string) error
}

// Remote is the authenticated remote store boundary. Authentication and
// session refresh happen outside the engine; the driver only asks whether a
// principal may be synced and obtains a store scoped to it.
type Remote interface {
	// IsAuthorized reports whether the principal may read and write remotely.
	IsAuthorized(ctx context.Context, principal string) bool

	// Session returns a RecordStore scoped to the principal.
	Session(principal string) RecordStore
}

// TombstoneSource provides the set of locally deleted identities.
type TombstoneSource interface {
	Snapshot(ctx context.Context, collection string) (TombstoneSet, error)
}

// Observer receives every finished pass, including throttled and failed ones.
type Observer interface {
	ObservePass(report *Report, err error)
}
