package remotestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lesson-sync/core/database"
	"lesson-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ reconcile.Remote = (*SQLRemote)(nil)

// SQLRemote is the gorm-backed remote.
type SQLRemote struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLRemote creates a SQL remote on db.
func NewSQLRemote(db *gorm.DB, logger *zap.Logger) *SQLRemote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLRemote{db: db, logger: logger, now: time.Now}
}

// Prepare verifies the remote schema, creating the tables when they do not exist.
// An existing table lacking a required column is an error; it is never altered.
func (r *SQLRemote) Prepare(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	for _, table := range Tables {
		columns, err := database.GetTableColumns(db, table)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			r.logger.Info("Creating remote table", zap.String("table", table))
			if err := db.AutoMigrate(&RemoteRecord{}, &Principal{}); err != nil {
				return fmt.Errorf("failed to create remote tables: %w", err)
			}
			return nil
		}
		if missing := database.MissingColumns(columns, requiredColumns[table]...); len(missing) > 0 {
			return fmt.Errorf("table %s is missing columns: %s", table, strings.Join(missing, ", "))
		}
	}
	return nil
}

// MissingColumns reports, per remote table, the required columns it lacks.
// A table that does not exist lacks all of them; complete tables are omitted.
func (r *SQLRemote) MissingColumns(ctx context.Context) (map[string][]string, error) {
	db := r.db.WithContext(ctx)
	report := make(map[string][]string)
	for _, table := range Tables {
		columns, err := database.GetTableColumns(db, table)
		if err != nil {
			return nil, err
		}
		if missing := database.MissingColumns(columns, requiredColumns[table]...); len(missing) > 0 {
			report[table] = missing
		}
	}
	return report, nil
}

// Grant activates principal, creating it if needed.
func (r *SQLRemote) Grant(ctx context.Context, principal string) error {
	if strings.TrimSpace(principal) == "" {
		return fmt.Errorf("principal is empty")
	}
	p := Principal{Name: principal, Active: true, CreatedAt: r.now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"active": true}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to grant principal %s: %w", principal, err)
	}
	return nil
}

// IsAuthorized reports whether principal is an active account.
// Lookup failures count as unauthorized.
func (r *SQLRemote) IsAuthorized(ctx context.Context, principal string) bool {
	if strings.TrimSpace(principal) == "" {
		return false
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&Principal{}).
		Where("name = ? AND active = ?", principal, true).
		Count(&count).Error
	if err != nil {
		r.logger.Warn("Principal lookup failed", zap.String("principal", principal), zap.Error(err))
		return false
	}
	return count > 0
}

// Session returns the record store scoped to principal.
func (r *SQLRemote) Session(principal string) reconcile.RecordStore {
	return &sqlSession{remote: r, owner: principal}
}

type sqlSession struct {
	remote *SQLRemote
	owner  string
}

func (s *sqlSession) List(ctx context.Context, collection string) ([]reconcile.Record, error) {
	var rows []RemoteRecord
	err := s.remote.db.WithContext(ctx).
		Where("owner = ? AND collection = ?", s.owner, collection).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, reconcile.NewStoreError("list", reconcile.OriginRemote, collection, "", err)
	}

	records := make([]reconcile.Record, 0, len(rows))
	for _, row := range rows {
		payload := reconcile.NewPayload()
		if err := json.Unmarshal([]byte(row.Payload), payload); err != nil {
			return nil, reconcile.NewStoreError("list", reconcile.OriginRemote, collection, row.Identity,
				fmt.Errorf("invalid payload: %w", err))
		}
		records = append(records, reconcile.Record{
			Identity:  row.Identity,
			Payload:   payload,
			Origin:    reconcile.OriginRemote,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return records, nil
}

// Upsert writes the record in a single INSERT ... ON CONFLICT statement.
func (s *sqlSession) Upsert(ctx context.Context, collection string, rec reconcile.Record) error {
	data, err := json.Marshal(rec.Payload)
	if err != nil {
		return reconcile.NewStoreError("upsert", reconcile.OriginRemote, collection, rec.Identity, err)
	}

	row := RemoteRecord{
		Owner:      s.owner,
		Collection: collection,
		Identity:   rec.Identity,
		Payload:    string(data),
		UpdatedAt:  s.remote.now().UTC(),
	}
	err = s.remote.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "collection"}, {Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	return reconcile.NewStoreError("upsert", reconcile.OriginRemote, collection, rec.Identity, err)
}

func (s *sqlSession) Delete(ctx context.Context, collection, identity string) error {
	err := s.remote.db.WithContext(ctx).
		Where("owner = ? AND collection = ? AND identity = ?", s.owner, collection, identity).
		Delete(&RemoteRecord{}).Error
	return reconcile.NewStoreError("delete", reconcile.OriginRemote, collection, identity, err)
}
