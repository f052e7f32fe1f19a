// Package storage wraps the minio client behind a small interface.
//
// The object remote stores one JSON document per record; this package only
// knows about buckets and objects. Tests use the testify mock in
// core/storage/mocks.
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
package storage
