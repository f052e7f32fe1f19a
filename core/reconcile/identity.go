package reconcile

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"lesson-sync/core/utils"
)

// IdentityResolver maps records to stable cross-store identities.
//
// Resolution order for a record:
//  1. the identity already carried by the record (store identity column);
//  2. the explicit identifier field (e.g., "custom_id");
//  3. a "<prefix>-<n>" token in the legacy field (e.g., id = "lesson-3");
//  4. the positional sequence field (e.g., lesson_number = 3 -> "lesson-3").
//
// Records matching none of these get the next unused sequence number of the
// snapshot, in first-seen order. The resolver does no I/O.
type IdentityResolver struct {
	prefix        string
	idField       string
	legacyField   string
	sequenceField string
	pattern       *regexp.Regexp
}

// NewIdentityResolver creates a resolver for identities of the form "<prefix>-<n>".
// Empty field names disable the corresponding resolution step.
func NewIdentityResolver(prefix, idField, legacyField, sequenceField string) *IdentityResolver {
	return &IdentityResolver{
		prefix:        prefix,
		idField:       idField,
		legacyField:   legacyField,
		sequenceField: sequenceField,
		pattern:       regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-(\d+)$`),
	}
}

// IDField returns the explicit identifier field name.
func (r *IdentityResolver) IDField() string {
	return r.idField
}

// Format builds the fallback identity for a sequence number.
func (r *IdentityResolver) Format(seq int) string {
	return fmt.Sprintf("%s-%d", r.prefix, seq)
}

// Sequence extracts the sequence number of a "<prefix>-<n>" identity.
func (r *IdentityResolver) Sequence(identity string) (int, bool) {
	m := r.pattern.FindStringSubmatch(identity)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve returns the identity of a single record without snapshot context.
// ok is false when the record carries no identity token at all; such records
// are only resolvable through ResolveAll.
func (r *IdentityResolver) Resolve(rec Record) (identity string, ok bool) {
	if id := strings.TrimSpace(rec.Identity); id != "" {
		return id, true
	}
	if r.idField != "" {
		if id := strings.TrimSpace(rec.Payload.String(r.idField)); id != "" {
			return id, true
		}
	}
	if r.legacyField != "" {
		if seq, found := r.Sequence(strings.TrimSpace(rec.Payload.String(r.legacyField))); found {
			return r.Format(seq), true
		}
	}
	if r.sequenceField != "" {
		if v, found := rec.Payload.Get(r.sequenceField); found && v != nil {
			if seq, found := r.Sequence(utils.ToString(v)); found {
				return r.Format(seq), true
			}
			if seq := utils.ToInt(v); seq > 0 {
				return r.Format(seq), true
			}
		}
	}
	return "", false
}

// SortKey returns the ordering key of a resolved record: its sequence number
// when known, otherwise math.MaxInt so it sorts last.
func (r *IdentityResolver) SortKey(identity string, payload *Payload) int {
	if seq, ok := r.Sequence(identity); ok {
		return seq
	}
	if r.sequenceField != "" {
		if seq := utils.ToInt(fieldValue(payload, r.sequenceField)); seq > 0 {
			return seq
		}
	}
	return math.MaxInt
}

// ResolveAll resolves every record of a snapshot. The returned records carry
// their identity. A record resolving to an identity already taken by an earlier
// record is skipped and reported as a DuplicateIdentityError.
func (r *IdentityResolver) ResolveAll(collection string, origin Origin, records []Record) ([]Record, []*DuplicateIdentityError) {
	return r.ResolveAllReserved(collection, origin, records, nil)
}

// ResolveAllReserved is ResolveAll where a record without an identity skips
// any fallback identity for which reserved reports true. A nil reserved
// reserves nothing.
func (r *IdentityResolver) ResolveAllReserved(collection string, origin Origin, records []Record, reserved func(identity string, rec Record) bool) ([]Record, []*DuplicateIdentityError) {
	identities := make([]string, len(records))
	maxSeq := 0
	for i, rec := range records {
		id, ok := r.Resolve(rec)
		if !ok {
			continue
		}
		identities[i] = id
		if seq, found := r.Sequence(id); found && seq > maxSeq {
			maxSeq = seq
		}
	}

	resolved := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var dups []*DuplicateIdentityError

	for i, rec := range records {
		id := identities[i]
		if id == "" {
			for {
				maxSeq++
				id = r.Format(maxSeq)
				if _, taken := seen[id]; taken {
					continue
				}
				if reserved == nil || !reserved(id, rec) {
					break
				}
			}
		}

		if _, taken := seen[id]; taken {
			dups = append(dups, &DuplicateIdentityError{
				Collection: collection,
				Identity:   id,
				Origin:     origin,
				Position:   i,
			})
			continue
		}
		seen[id] = struct{}{}

		rec.Identity = id
		if rec.Origin == "" {
			rec.Origin = origin
		}
		resolved = append(resolved, rec)
	}

	return resolved, dups
}

func fieldValue(p *Payload, name string) any {
	v, _ := p.Get(name)
	return v
}
