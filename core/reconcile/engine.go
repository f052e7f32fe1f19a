package reconcile

import (
	"sort"
)

// Diff classifies every identity in the union of the local and remote
// snapshots. It is pure: the caller fetches the snapshots and applies the
// pending results.
//
// Local is the trusted source. Mapped fields present locally overwrite the
// remote values, fields absent locally are left untouched remotely, and an
// explicit local null nulls the remote field. Remote-only identities are
// reported but never deleted; tombstoned ones are suppressed.
func Diff(c Collection, local, remote []Record, tombstones TombstoneSet) DiffOutcome {
	remoteRecs, remoteDups := c.Resolver.ResolveAll(c.Name, OriginRemote, remote)

	remoteIndex := make(map[string]Record, len(remoteRecs))
	for _, rec := range remoteRecs {
		remoteIndex[rec.Identity] = rec
	}

	// A local record without an identity may only take a fallback the remote
	// holds when that remote record already carries its mapped fields.
	localRecs, localDups := c.Resolver.ResolveAllReserved(c.Name, OriginLocal, local,
		func(identity string, rec Record) bool {
			rrec, ok := remoteIndex[identity]
			if !ok {
				return false
			}
			_, changed := mergePayload(c, Record{Identity: identity, Payload: rec.Payload}, rrec)
			return len(changed) > 0
		})

	results := make([]DiffResult, 0, len(localRecs)+len(remoteRecs))
	seen := make(map[string]struct{}, len(localRecs))

	for _, lrec := range localRecs {
		seen[lrec.Identity] = struct{}{}
		result := DiffResult{
			Identity: lrec.Identity,
			Sequence: c.Resolver.SortKey(lrec.Identity, lrec.Payload),
		}

		rrec, inRemote := remoteIndex[lrec.Identity]
		switch {
		case tombstones.Has(lrec.Identity):
			result.Action = ActionSuppressed
		case !inRemote:
			result.Action = ActionCreateRemote
			result.Payload = createPayload(c, lrec)
		default:
			merged, changed := mergePayload(c, lrec, rrec)
			if len(changed) == 0 {
				result.Action = ActionUnchanged
			} else {
				result.Action = ActionUpdateRemote
				result.Payload = merged
				result.Changed = changed
			}
		}
		results = append(results, result)
	}

	for _, rrec := range remoteRecs {
		if _, ok := seen[rrec.Identity]; ok {
			continue
		}
		action := ActionRemoteOnly
		if tombstones.Has(rrec.Identity) {
			action = ActionSuppressed
		}
		results = append(results, DiffResult{
			Identity: rrec.Identity,
			Action:   action,
			Sequence: c.Resolver.SortKey(rrec.Identity, rrec.Payload),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Sequence != results[j].Sequence {
			return results[i].Sequence < results[j].Sequence
		}
		return results[i].Identity < results[j].Identity
	})

	return DiffOutcome{
		Results:    results,
		Duplicates: append(localDups, remoteDups...),
	}
}

// createPayload builds the remote payload for a record absent remotely.
// Only mapped fields present locally are written.
func createPayload(c Collection, rec Record) *Payload {
	p := NewPayload()
	if idField := c.Resolver.IDField(); idField != "" {
		p.Set(idField, rec.Identity)
	}
	for _, rule := range c.Fields {
		if v, ok := rec.Payload.Get(rule.Local); ok {
			p.Set(rule.Remote, v)
		}
	}
	return p
}

// mergePayload overlays the local mapped fields onto the remote payload and
// returns the remote field names that changed.
func mergePayload(c Collection, local, remote Record) (*Payload, []string) {
	merged := remote.Payload.Clone()
	var changed []string

	for _, rule := range c.Fields {
		lv, ok := local.Payload.Get(rule.Local)
		if !ok {
			continue
		}
		rv, present := remote.Payload.Get(rule.Remote)
		if !present && lv == nil {
			// Absent remotely is already null.
			continue
		}
		if present && ValuesEqual(lv, rv) {
			continue
		}
		merged.Set(rule.Remote, lv)
		changed = append(changed, rule.Remote)
	}

	if len(changed) > 0 {
		if idField := c.Resolver.IDField(); idField != "" && merged.String(idField) != local.Identity {
			merged.Set(idField, local.Identity)
		}
	}
	return merged, changed
}
