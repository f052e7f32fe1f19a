package checks

import (
	"context"
	"fmt"

	"lesson-sync/core/reconcile"
)

// CollectionReport describes the local records of one collection.
type CollectionReport struct {
	Records int `json:"records"`
	// Untagged holds the positions of records without any identity token.
	// They are assigned identities on their first sync.
	Untagged []int `json:"untagged"`
	// Duplicates lists identities claimed by more than one record; only the
	// first record of each is synced.
	Duplicates []string `json:"duplicates"`
	// Shadowed lists local identities that are also tombstoned and will
	// never reach the remote until the tombstones are cleared.
	Shadowed []string `json:"shadowed"`
	Status   string   `json:"status"` // "ok", "warning"
}

// LocalReport is the result of a local store check.
type LocalReport struct {
	Healthy     bool                        `json:"healthy"`
	Collections map[string]CollectionReport `json:"collections"`
	Errors      []string                    `json:"errors"`
}

// CheckLocal inspects every collection for identity problems.
func CheckLocal(ctx context.Context, store reconcile.RecordStore, tombstones reconcile.TombstoneSource, collections []reconcile.Collection) (*LocalReport, error) {
	if store == nil {
		return nil, fmt.Errorf("local store is nil")
	}

	report := &LocalReport{
		Healthy:     true,
		Collections: make(map[string]CollectionReport, len(collections)),
		Errors:      []string{},
	}

	for _, c := range collections {
		records, err := store.List(ctx, c.Name)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to list %s: %v", c.Name, err))
			report.Healthy = false
			continue
		}

		var set reconcile.TombstoneSet
		if tombstones != nil {
			if set, err = tombstones.Snapshot(ctx, c.Name); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("Failed to load tombstones of %s: %v", c.Name, err))
				report.Healthy = false
			}
		}

		cr := CollectionReport{
			Records:    len(records),
			Untagged:   []int{},
			Duplicates: []string{},
			Shadowed:   []string{},
			Status:     "ok",
		}
		for i, rec := range records {
			if _, ok := c.Resolver.Resolve(rec); !ok {
				cr.Untagged = append(cr.Untagged, i)
			}
		}

		resolved, dups := c.Resolver.ResolveAll(c.Name, reconcile.OriginLocal, records)
		for _, d := range dups {
			cr.Duplicates = append(cr.Duplicates, d.Identity)
		}
		for _, rec := range resolved {
			if set.Has(rec.Identity) {
				cr.Shadowed = append(cr.Shadowed, rec.Identity)
			}
		}

		if len(cr.Duplicates) > 0 || len(cr.Shadowed) > 0 {
			cr.Status = "warning"
			report.Healthy = false
		}
		report.Collections[c.Name] = cr
	}

	return report, nil
}
