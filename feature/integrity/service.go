package integrity

import (
	"context"
	"fmt"

	"lesson-sync/core/reconcile"
	"lesson-sync/core/remotestore"
	"lesson-sync/core/storage"
	"lesson-sync/feature/integrity/checks"

	"go.uber.org/zap"
)

// Service handles integrity checks.
type Service struct {
	local       reconcile.RecordStore
	tombstones  reconcile.TombstoneSource
	collections []reconcile.Collection
	logger      *zap.Logger

	sql    *remotestore.SQLRemote
	client storage.Client
	bucket string
	region string
}

// Option configures the remote side of a Service.
type Option func(*Service)

// WithSQLRemote checks the schema of the sql remote.
func WithSQLRemote(remote *remotestore.SQLRemote) Option {
	return func(s *Service) { s.sql = remote }
}

// WithObjectRemote checks the bucket of the object remote.
func WithObjectRemote(client storage.Client, bucket, region string) Option {
	return func(s *Service) {
		s.client = client
		s.bucket = bucket
		s.region = region
	}
}

// NewService creates a new integrity service.
func NewService(local reconcile.RecordStore, tombstones reconcile.TombstoneSource, collections []reconcile.Collection, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		local:       local,
		tombstones:  tombstones,
		collections: collections,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLocal reports identity problems in the local store.
func (s *Service) CheckLocal(ctx context.Context) (*checks.LocalReport, error) {
	return checks.CheckLocal(ctx, s.local, s.tombstones, s.collections)
}

// CheckRemote verifies the configured remote store, optionally fixing it.
func (s *Service) CheckRemote(ctx context.Context, fix bool) (*checks.RemoteReport, error) {
	switch {
	case s.sql != nil:
		return checks.CheckSQLRemote(ctx, s.sql, fix, s.logger)
	case s.client != nil:
		return checks.CheckBucket(ctx, s.client, s.bucket, s.region, fix, s.logger)
	default:
		return nil, fmt.Errorf("no remote store configured")
	}
}
