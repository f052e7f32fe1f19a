package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// applyResults upserts every pending result sequentially, in diff order.
// A failed upsert is recorded and the remaining results are still applied.
// When ctx is cancelled the remaining results are recorded as failures;
// upserts already applied stay applied.
func (d *Driver) applyResults(ctx context.Context, store RecordStore, c Collection, outcome DiffOutcome, report *Report) {
	for _, result := range outcome.Results {
		switch result.Action {
		case ActionSuppressed:
			report.Suppressed++
			continue
		case ActionUnchanged:
			report.Unchanged++
			continue
		case ActionRemoteOnly:
			report.RemoteOnly++
			continue
		}

		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{Identity: result.Identity, Reason: err.Error(), Err: err})
			report.Failed++
			continue
		}

		rec := Record{
			Identity: result.Identity,
			Payload:  result.Payload,
			Origin:   OriginLocal,
		}
		if err := store.Upsert(ctx, c.Name, rec); err != nil {
			err = NewStoreError("upsert", OriginRemote, c.Name, result.Identity, err)
			d.logger.Warn("Failed to apply record",
				zap.String("collection", c.Name),
				zap.String("identity", result.Identity),
				zap.String("action", string(result.Action)),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, Failure{Identity: result.Identity, Reason: err.Error(), Err: err})
			report.Failed++
			continue
		}

		switch result.Action {
		case ActionCreateRemote:
			report.Created++
		case ActionUpdateRemote:
			report.Updated++
		}
		d.logger.Debug("Applied record",
			zap.String("collection", c.Name),
			zap.String("identity", result.Identity),
			zap.String("action", string(result.Action)),
			zap.Strings("changed", result.Changed),
		)
	}
}

// PendingActions filters the results that require a remote upsert.
func PendingActions(results []DiffResult) []DiffResult {
	var pending []DiffResult
	for _, r := range results {
		if r.Action.Pending() {
			pending = append(pending, r)
		}
	}
	return pending
}

// Preview fetches both snapshots and returns the diff of a pass without
// applying it. The throttle and the sync cursor are neither consulted nor
// updated.
func (d *Driver) Preview(ctx context.Context, pass Pass) (DiffOutcome, error) {
	c, ok := d.catalog[pass.Collection]
	if !ok {
		return DiffOutcome{}, fmt.Errorf("%w: %s", ErrUnknownCollection, pass.Collection)
	}
	if !d.remote.IsAuthorized(ctx, pass.Principal) {
		return DiffOutcome{}, &AuthorizationError{Principal: pass.Principal}
	}

	localRecs, err := d.local.List(ctx, c.Name)
	if err != nil {
		return DiffOutcome{}, NewStoreError("list", OriginLocal, c.Name, "", err)
	}
	remoteRecs, err := d.remote.Session(pass.Principal).List(ctx, c.Name)
	if err != nil {
		return DiffOutcome{}, NewStoreError("list", OriginRemote, c.Name, "", err)
	}
	tombstones, err := d.tombstones.Snapshot(ctx, c.Name)
	if err != nil {
		return DiffOutcome{}, NewStoreError("tombstones", OriginLocal, c.Name, "", err)
	}

	return Diff(c, localRecs, remoteRecs, tombstones), nil
}
