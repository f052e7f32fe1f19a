package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"lesson-sync/core/reconcile"
	"lesson-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const objectSuffix = ".json"

var _ reconcile.Remote = (*ObjectRemote)(nil)

// ObjectRemote is the minio-backed remote.
type ObjectRemote struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewObjectRemote creates an object remote storing records in bucket.
func NewObjectRemote(client storage.Client, bucket string, logger *zap.Logger) *ObjectRemote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectRemote{client: client, bucket: bucket, logger: logger}
}

// ObjectKey returns the object name of a record.
func ObjectKey(principal, collection, identity string) string {
	return path.Join(principal, collection, url.PathEscape(identity)+objectSuffix)
}

// IsAuthorized requires a usable principal and a reachable bucket.
func (r *ObjectRemote) IsAuthorized(ctx context.Context, principal string) bool {
	principal = strings.TrimSpace(principal)
	if principal == "" || strings.ContainsAny(principal, "/\\") || principal == "." || principal == ".." {
		return false
	}
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		r.logger.Warn("Bucket check failed", zap.String("bucket", r.bucket), zap.Error(err))
		return false
	}
	return exists
}

// Session returns the record store scoped to principal.
func (r *ObjectRemote) Session(principal string) reconcile.RecordStore {
	return &objectSession{remote: r, principal: principal}
}

type objectSession struct {
	remote    *ObjectRemote
	principal string
}

func (s *objectSession) List(ctx context.Context, collection string) ([]reconcile.Record, error) {
	// Cancelling stops the listing goroutine when we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := path.Join(s.principal, collection) + "/"
	objects := s.remote.client.ListObjects(ctx, s.remote.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var records []reconcile.Record
	for obj := range objects {
		if obj.Err != nil {
			return nil, reconcile.NewStoreError("list", reconcile.OriginRemote, collection, "", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if !strings.HasSuffix(name, objectSuffix) || strings.Contains(name, "/") {
			continue
		}
		identity, err := url.PathUnescape(strings.TrimSuffix(name, objectSuffix))
		if err != nil {
			s.remote.logger.Warn("Skipping object with invalid name", zap.String("key", obj.Key))
			continue
		}

		payload, err := s.read(ctx, obj.Key)
		if err != nil {
			return nil, reconcile.NewStoreError("get", reconcile.OriginRemote, collection, identity, err)
		}
		records = append(records, reconcile.Record{
			Identity:  identity,
			Payload:   payload,
			Origin:    reconcile.OriginRemote,
			UpdatedAt: obj.LastModified,
		})
	}
	return records, nil
}

func (s *objectSession) read(ctx context.Context, key string) (*reconcile.Payload, error) {
	body, err := s.remote.client.GetObject(ctx, s.remote.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	payload := reconcile.NewPayload()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("invalid payload in %s: %w", key, err)
	}
	return payload, nil
}

// Upsert puts the record object. A put replaces the whole object atomically.
func (s *objectSession) Upsert(ctx context.Context, collection string, rec reconcile.Record) error {
	data, err := json.Marshal(rec.Payload)
	if err != nil {
		return reconcile.NewStoreError("put", reconcile.OriginRemote, collection, rec.Identity, err)
	}
	_, err = s.remote.client.PutObject(ctx, s.remote.bucket, ObjectKey(s.principal, collection, rec.Identity),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	return reconcile.NewStoreError("put", reconcile.OriginRemote, collection, rec.Identity, err)
}

func (s *objectSession) Delete(ctx context.Context, collection, identity string) error {
	err := s.remote.client.RemoveObject(ctx, s.remote.bucket, ObjectKey(s.principal, collection, identity), minio.RemoveObjectOptions{})
	return reconcile.NewStoreError("remove", reconcile.OriginRemote, collection, identity, err)
}
