package reconcile

import (
	"fmt"
	"time"
)

// Origin tags which store a record was read from.
type Origin string

const (
	// OriginLocal marks records read from the offline-first local store.
	OriginLocal Origin = "local"
	// OriginRemote marks records read from the authoritative remote store.
	OriginRemote Origin = "remote"
)

// Record is a single entity of a collection as seen by one store.
type Record struct {
	// Identity is the cross-store key. Stores that keep an identity column
	// fill it; otherwise it is empty until resolved by the IdentityResolver.
	Identity string `json:"identity,omitempty"`

	// Payload holds the record fields.
	Payload *Payload `json:"payload"`

	// Origin is the store the record came from.
	Origin Origin `json:"origin"`

	// UpdatedAt is the last write time reported by the store, if it tracks one.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// FieldRule maps one local field name to its remote counterpart.
type FieldRule struct {
	Local  string
	Remote string
}

// FieldMap is the ordered list of fields that take part in reconciliation.
// Fields outside the map are never compared nor written by a sync pass.
type FieldMap []FieldRule

// RemoteFor returns the remote field name mapped from a local field.
func (m FieldMap) RemoteFor(local string) (string, bool) {
	for _, rule := range m {
		if rule.Local == local {
			return rule.Remote, true
		}
	}
	return "", false
}

// Collection describes one logical collection synced between the stores.
type Collection struct {
	// Name is the collection name used by both stores (e.g., "lessons").
	Name string

	// Resolver derives identities for the collection's records.
	Resolver *IdentityResolver

	// Fields lists the mapped fields compared and written by sync.
	Fields FieldMap
}

// Action classifies one identity in a diff.
type Action string

const (
	// ActionCreateRemote means the record exists locally only and must be created remotely.
	ActionCreateRemote Action = "create_remote"
	// ActionUpdateRemote means the record exists on both sides with differing mapped fields.
	ActionUpdateRemote Action = "update_remote"
	// ActionUnchanged means both sides agree on every mapped field.
	ActionUnchanged Action = "unchanged"
	// ActionSuppressed means the identity is tombstoned and must not be recreated.
	ActionSuppressed Action = "suppressed"
	// ActionRemoteOnly means the record exists remotely only. It is informational;
	// sync never deletes remote records.
	ActionRemoteOnly Action = "remote_only"
)

// Pending reports whether the action requires a remote upsert.
func (a Action) Pending() bool {
	return a == ActionCreateRemote || a == ActionUpdateRemote
}

// DiffResult is the classification of a single identity.
type DiffResult struct {
	// Identity is the resolved cross-store key.
	Identity string `json:"identity"`

	// Action is what the driver must do for this identity.
	Action Action `json:"action"`

	// Sequence is the numeric ordering key (lesson number); 0 when unknown.
	Sequence int `json:"sequence"`

	// Payload is the remote payload to upsert for create/update actions.
	Payload *Payload `json:"payload,omitempty"`

	// Changed lists the remote fields that differ for update actions.
	Changed []string `json:"changed,omitempty"`
}

// DiffOutcome is the full output of Diff.
type DiffOutcome struct {
	Results    []DiffResult
	Duplicates []*DuplicateIdentityError
}

// TombstoneSet is the set of identities deleted locally.
type TombstoneSet map[string]struct{}

// Has reports whether identity is tombstoned.
func (s TombstoneSet) Has(identity string) bool {
	_, ok := s[identity]
	return ok
}

// Scope identifies the unit a sync cursor and throttle apply to.
type Scope struct {
	Collection string
	Principal  string
}

// String returns a stable key for the scope.
func (s Scope) String() string {
	return fmt.Sprintf("%s|%s", s.Principal, s.Collection)
}

// Pass describes a single invocation of the driver.
type Pass struct {
	// Collection is the collection name to reconcile.
	Collection string
	// Principal is the authenticated remote account the pass writes to.
	Principal string
	// Force bypasses the throttle.
	Force bool
}

// State is a driver state machine state.
type State string

const (
	StateIdle      State = "idle"
	StateThrottled State = "throttled"
	StateFetching  State = "fetching"
	StateDiffing   State = "diffing"
	StateApplying  State = "applying"
	StateReporting State = "reporting"
	StateFailed    State = "failed"
)

// Outcome summarizes how a pass ended.
type Outcome string

const (
	// OutcomeCompleted means every pending mutation was applied.
	OutcomeCompleted Outcome = "completed"
	// OutcomePartial means the pass finished with at least one failed upsert.
	OutcomePartial Outcome = "partial"
	// OutcomeThrottled means the pass was skipped by the throttle.
	OutcomeThrottled Outcome = "throttled"
	// OutcomeFailed means the pass aborted before applying anything.
	OutcomeFailed Outcome = "failed"
)

// Failure describes one record that could not be applied.
type Failure struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// Report is the operator-facing result of a pass.
type Report struct {
	Collection       string        `json:"collection"`
	Principal        string        `json:"principal"`
	Outcome          Outcome       `json:"state"`
	Created          int           `json:"created"`
	Updated          int           `json:"updated"`
	Suppressed       int           `json:"suppressed"`
	Unchanged        int           `json:"unchanged"`
	RemoteOnly       int           `json:"remote_only"`
	SkippedDuplicate int           `json:"skipped_duplicate"`
	Failed           int           `json:"failed"`
	Failures         []Failure     `json:"failures"`
	Warnings         []string      `json:"warnings,omitempty"`
	Error            string        `json:"error,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

// FailedCount returns the number of records that failed to apply.
func (r *Report) FailedCount() int {
	return len(r.Failures)
}

// Changes returns the number of remote mutations applied.
func (r *Report) Changes() int {
	return r.Created + r.Updated
}
