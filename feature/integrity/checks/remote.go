package checks

import (
	"context"
	"fmt"

	"lesson-sync/core/remotestore"
	"lesson-sync/core/storage"

	"go.uber.org/zap"
)

// TableReport describes one remote table.
type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error"
}

// RemoteReport is the result of a remote store check.
type RemoteReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables,omitempty"`
	Bucket  string                 `json:"bucket,omitempty"`
	Fixed   bool                   `json:"fixed"`
	Errors  []string               `json:"errors"`
}

// CheckSQLRemote verifies the remote schema. With fix set, missing tables are
// created; tables lacking columns are only reported.
func CheckSQLRemote(ctx context.Context, remote *remotestore.SQLRemote, fix bool, logger *zap.Logger) (*RemoteReport, error) {
	if remote == nil {
		return nil, fmt.Errorf("sql remote is nil")
	}

	missing, err := remote.MissingColumns(ctx)
	if err != nil {
		return nil, err
	}

	if fix && len(missing) > 0 {
		logger.Info("Attempting to fix remote schema")
		if err := remote.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("failed to fix remote schema: %w", err)
		}
		if missing, err = remote.MissingColumns(ctx); err != nil {
			return nil, err
		}
	}

	report := &RemoteReport{
		Driver:  remotestore.DriverSQL,
		Matched: len(missing) == 0,
		Tables:  make(map[string]TableReport, len(remotestore.Tables)),
		Fixed:   fix,
		Errors:  []string{},
	}
	for _, table := range remotestore.Tables {
		tr := TableReport{MissingColumns: []string{}, Status: "ok"}
		if cols := missing[table]; len(cols) > 0 {
			tr.MissingColumns = cols
			tr.Status = "error"
			report.Errors = append(report.Errors, fmt.Sprintf("Table %s is missing %d column(s)", table, len(cols)))
		}
		report.Tables[table] = tr
	}
	return report, nil
}

// CheckBucket verifies that the object remote bucket exists, creating it when
// fix is set.
func CheckBucket(ctx context.Context, client storage.Client, bucket, region string, fix bool, logger *zap.Logger) (*RemoteReport, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is nil")
	}

	report := &RemoteReport{
		Driver: remotestore.DriverObject,
		Bucket: bucket,
		Fixed:  fix,
		Errors: []string{},
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists && fix {
		logger.Info("Creating missing bucket", zap.String("bucket", bucket))
		if err := storage.EnsureBucket(ctx, client, bucket, region); err != nil {
			return nil, err
		}
		exists = true
	}
	if !exists {
		report.Errors = append(report.Errors, fmt.Sprintf("Bucket %s does not exist", bucket))
	}
	report.Matched = exists
	return report, nil
}
