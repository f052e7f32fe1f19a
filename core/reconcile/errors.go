package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCollection is returned when a pass names a collection the driver
// was not configured with.
var ErrUnknownCollection = errors.New("unknown collection")

// StoreError is a transport or store failure. It is retryable by the caller;
// the engine never retries internally.
type StoreError struct {
	Op         string
	Origin     Origin
	Collection string
	Identity   string
	Err        error
}

// NewStoreError wraps err as a StoreError unless it already is one.
func NewStoreError(op string, origin Origin, collection, identity string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Origin: origin, Collection: collection, Identity: identity, Err: err}
}

func (e *StoreError) Error() string {
	target := e.Collection
	if e.Identity != "" {
		target += "/" + e.Identity
	}
	return fmt.Sprintf("%s store %s %s: %v", e.Origin, e.Op, target, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// DuplicateIdentityError reports a record skipped because an earlier record of
// the same snapshot already resolved to its identity. It is a data-quality
// warning, never fatal.
type DuplicateIdentityError struct {
	Collection string
	Identity   string
	Origin     Origin
	// Position is the index of the skipped record in its snapshot.
	Position int
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate identity %s in %s %s snapshot (record %d skipped)", e.Identity, e.Origin, e.Collection, e.Position)
}

// AuthorizationError aborts a pass before any remote call is made.
type AuthorizationError struct {
	Principal string
}

func (e *AuthorizationError) Error() string {
	if e.Principal == "" {
		return "remote access not authorized: no principal"
	}
	return fmt.Sprintf("remote access not authorized for principal %q", e.Principal)
}

// PartialApplyError aggregates the individual upsert failures of a pass.
// The pass itself completed; the sync cursor is not advanced so the next pass
// retries exactly the remaining delta.
type PartialApplyError struct {
	Collection string
	Failures   []Failure
}

func (e *PartialApplyError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.Identity)
	}
	return fmt.Sprintf("%d of the pending %s records failed to apply: %s", len(e.Failures), e.Collection, strings.Join(ids, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *PartialApplyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
