package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lesson-sync/core/reconcile"
	"lesson-sync/core/tombstone"

	"go.uber.org/zap"
)

// Service runs sync passes and tombstone operations.
type Service struct {
	driver *reconcile.Driver
	ledger *tombstone.Ledger
	local  reconcile.RecordStore
	logger *zap.Logger
}

// NewService creates a sync service.
func NewService(driver *reconcile.Driver, ledger *tombstone.Ledger, local reconcile.RecordStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{driver: driver, ledger: ledger, local: local, logger: logger}
}

// Cursor describes the sync position of one scope.
type Cursor struct {
	Collection  string          `json:"collection"`
	Principal   string          `json:"principal"`
	State       reconcile.State `json:"state"`
	LastSuccess *time.Time      `json:"last_success,omitempty"`
}

// Preview lists what a pass would change.
type Preview struct {
	Collection string                 `json:"collection"`
	Principal  string                 `json:"principal"`
	Pending    []reconcile.DiffResult `json:"pending"`
	Suppressed int                    `json:"suppressed"`
	Unchanged  int                    `json:"unchanged"`
	RemoteOnly int                    `json:"remote_only"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// Sync runs one pass.
func (s *Service) Sync(ctx context.Context, collection, principal string, force bool) (*reconcile.Report, error) {
	return s.driver.Run(ctx, reconcile.Pass{Collection: collection, Principal: principal, Force: force})
}

// SyncAll runs a pass per collection, in order. Every collection is attempted;
// the returned error joins the failures.
func (s *Service) SyncAll(ctx context.Context, collections []string, principal string, force bool) ([]*reconcile.Report, error) {
	reports := make([]*reconcile.Report, 0, len(collections))
	var errs []error
	for _, c := range collections {
		report, err := s.Sync(ctx, c, principal, force)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return reports, errors.Join(errs...)
}

// Preview computes the pending changes of a pass without applying them.
func (s *Service) Preview(ctx context.Context, collection, principal string) (*Preview, error) {
	outcome, err := s.driver.Preview(ctx, reconcile.Pass{Collection: collection, Principal: principal})
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Collection: collection,
		Principal:  principal,
		Pending:    reconcile.PendingActions(outcome.Results),
	}
	if p.Pending == nil {
		p.Pending = []reconcile.DiffResult{}
	}
	for _, r := range outcome.Results {
		switch r.Action {
		case reconcile.ActionSuppressed:
			p.Suppressed++
		case reconcile.ActionUnchanged:
			p.Unchanged++
		case reconcile.ActionRemoteOnly:
			p.RemoteOnly++
		}
	}
	for _, dup := range outcome.Duplicates {
		p.Warnings = append(p.Warnings, dup.Error())
	}
	return p, nil
}

// Cursor returns the sync position of a scope.
func (s *Service) Cursor(collection, principal string) (*Cursor, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	cursor := &Cursor{
		Collection: collection,
		Principal:  principal,
		State:      s.driver.State(collection, principal),
	}
	if last, ok := s.driver.Throttle().LastRun(reconcile.Scope{Collection: collection, Principal: principal}); ok {
		cursor.LastSuccess = &last
	}
	return cursor, nil
}

// ListTombstones lists the tombstones of a collection.
func (s *Service) ListTombstones(ctx context.Context, collection string) ([]tombstone.Tombstone, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	return s.ledger.List(ctx, collection)
}

// MarkTombstone tombstones identity without touching the local record.
func (s *Service) MarkTombstone(ctx context.Context, collection, identity string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	return s.ledger.Mark(ctx, collection, identity)
}

// DeleteRecord soft-deletes a local record: the identity is tombstoned first,
// then the record is removed from the local store.
func (s *Service) DeleteRecord(ctx context.Context, collection, identity string) error {
	if err := s.MarkTombstone(ctx, collection, identity); err != nil {
		return err
	}
	if err := s.local.Delete(ctx, collection, identity); err != nil {
		return err
	}
	s.logger.Info("Local record deleted", zap.String("collection", collection), zap.String("identity", identity))
	return nil
}

// RequestClear issues a confirmation token for ClearTombstones.
func (s *Service) RequestClear(collection string) (tombstone.Token, error) {
	if err := s.checkCollection(collection); err != nil {
		return tombstone.Token{}, err
	}
	return s.ledger.RequestClear(collection), nil
}

// ClearTombstones removes every tombstone of a collection.
func (s *Service) ClearTombstones(ctx context.Context, collection, token string) (int, error) {
	if err := s.checkCollection(collection); err != nil {
		return 0, err
	}
	return s.ledger.ClearAll(ctx, collection, token)
}

func (s *Service) checkCollection(collection string) error {
	if _, ok := s.driver.Collection(collection); !ok {
		return fmt.Errorf("%w: %s", reconcile.ErrUnknownCollection, collection)
	}
	return nil
}
