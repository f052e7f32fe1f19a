package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lesson-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements reconcile.RecordStore and tombstone.Backend on a gorm database.
type Store struct {
	db        *gorm.DB
	resolvers map[string]*reconcile.IdentityResolver
	logger    *zap.Logger
}

// NewStore creates a local store. Collections provide the resolvers used to
// match records by identity on Upsert and Delete.
func NewStore(db *gorm.DB, collections []reconcile.Collection, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		db:        db,
		resolvers: make(map[string]*reconcile.IdentityResolver, len(collections)),
		logger:    logger,
	}
	for _, c := range collections {
		s.resolvers[c.Name] = c.Resolver
	}
	return s
}

// Migrate creates the key-value table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}
	return nil
}

// List returns the records of a collection in stored order.
func (s *Store) List(ctx context.Context, collection string) ([]reconcile.Record, error) {
	entry, err := s.load(s.db.WithContext(ctx), collection)
	if err != nil {
		return nil, reconcile.NewStoreError("list", reconcile.OriginLocal, collection, "", err)
	}

	payloads, err := decodePayloads(entry)
	if err != nil {
		return nil, reconcile.NewStoreError("list", reconcile.OriginLocal, collection, "", err)
	}

	records := make([]reconcile.Record, 0, len(payloads))
	for _, p := range payloads {
		records = append(records, reconcile.Record{
			Payload:   p,
			Origin:    reconcile.OriginLocal,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return records, nil
}

// Upsert replaces the record resolving to rec.Identity, or appends it.
func (s *Store) Upsert(ctx context.Context, collection string, rec reconcile.Record) error {
	resolver, err := s.resolver(collection)
	if err != nil {
		return reconcile.NewStoreError("upsert", reconcile.OriginLocal, collection, rec.Identity, err)
	}

	err = s.update(ctx, collection, func(payloads []*reconcile.Payload) ([]*reconcile.Payload, error) {
		payload := rec.Payload.Clone()
		if idField := resolver.IDField(); idField != "" && rec.Identity != "" && !payload.Has(idField) {
			payload.Set(idField, rec.Identity)
		}
		if i := indexOf(resolver, collection, payloads, rec.Identity); i >= 0 {
			payloads[i] = payload
			return payloads, nil
		}
		return append(payloads, payload), nil
	})
	return reconcile.NewStoreError("upsert", reconcile.OriginLocal, collection, rec.Identity, err)
}

// Delete removes the record resolving to identity. Deleting a missing record
// is not an error. It does not tombstone the identity.
func (s *Store) Delete(ctx context.Context, collection, identity string) error {
	resolver, err := s.resolver(collection)
	if err != nil {
		return reconcile.NewStoreError("delete", reconcile.OriginLocal, collection, identity, err)
	}

	err = s.update(ctx, collection, func(payloads []*reconcile.Payload) ([]*reconcile.Payload, error) {
		if i := indexOf(resolver, collection, payloads, identity); i >= 0 {
			return append(payloads[:i], payloads[i+1:]...), nil
		}
		return payloads, nil
	})
	return reconcile.NewStoreError("delete", reconcile.OriginLocal, collection, identity, err)
}

// Replace overwrites the whole collection with payloads.
func (s *Store) Replace(ctx context.Context, collection string, payloads []*reconcile.Payload) error {
	err := s.update(ctx, collection, func([]*reconcile.Payload) ([]*reconcile.Payload, error) {
		return payloads, nil
	})
	if err != nil {
		return reconcile.NewStoreError("replace", reconcile.OriginLocal, collection, "", err)
	}
	s.logger.Info("Local collection replaced", zap.String("collection", collection), zap.Int("records", len(payloads)))
	return nil
}

// LoadTombstones returns the tombstone map of a collection.
func (s *Store) LoadTombstones(ctx context.Context, collection string) (map[string]time.Time, error) {
	entry, err := s.load(s.db.WithContext(ctx), TombstoneKey(collection))
	if err != nil {
		return nil, reconcile.NewStoreError("load tombstones", reconcile.OriginLocal, collection, "", err)
	}
	m, err := decodeTombstones(entry)
	if err != nil {
		return nil, reconcile.NewStoreError("load tombstones", reconcile.OriginLocal, collection, "", err)
	}
	return m, nil
}

// UpdateTombstones applies fn to the tombstone map of a collection in one transaction.
func (s *Store) UpdateTombstones(ctx context.Context, collection string, fn func(map[string]time.Time) error) error {
	key := TombstoneKey(collection)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.load(tx, key)
		if err != nil {
			return err
		}
		m, err := decodeTombstones(entry)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode tombstones: %w", err)
		}
		return s.save(tx, key, string(data))
	})
	return reconcile.NewStoreError("update tombstones", reconcile.OriginLocal, collection, "", err)
}

func (s *Store) resolver(collection string) (*reconcile.IdentityResolver, error) {
	r, ok := s.resolvers[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrUnknownCollection, collection)
	}
	return r, nil
}

// update runs a read-modify-write of the collection array in one transaction.
func (s *Store) update(ctx context.Context, collection string, fn func([]*reconcile.Payload) ([]*reconcile.Payload, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.load(tx, collection)
		if err != nil {
			return err
		}
		payloads, err := decodePayloads(entry)
		if err != nil {
			return err
		}
		payloads, err = fn(payloads)
		if err != nil {
			return err
		}
		if payloads == nil {
			payloads = []*reconcile.Payload{}
		}
		data, err := json.Marshal(payloads)
		if err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}
		return s.save(tx, collection, string(data))
	})
}

// load returns the entry for key. A missing key yields an empty entry.
func (s *Store) load(tx *gorm.DB, key string) (Entry, error) {
	var entry Entry
	err := tx.Where("name = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{Name: key}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return entry, nil
}

func (s *Store) save(tx *gorm.DB, key, value string) error {
	entry := Entry{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func decodePayloads(entry Entry) ([]*reconcile.Payload, error) {
	if entry.Value == "" {
		return nil, nil
	}
	var payloads []*reconcile.Payload
	if err := json.Unmarshal([]byte(entry.Value), &payloads); err != nil {
		return nil, fmt.Errorf("key %s does not hold a JSON array of records: %w", entry.Name, err)
	}
	// Null array elements carry no record.
	out := payloads[:0]
	for _, p := range payloads {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func decodeTombstones(entry Entry) (map[string]time.Time, error) {
	m := make(map[string]time.Time)
	if entry.Value == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(entry.Value), &m); err != nil {
		return nil, fmt.Errorf("key %s does not hold a tombstone map: %w", entry.Name, err)
	}
	return m, nil
}

// indexOf returns the position of the payload resolving to identity, or -1.
func indexOf(resolver *reconcile.IdentityResolver, collection string, payloads []*reconcile.Payload, identity string) int {
	records := make([]reconcile.Record, len(payloads))
	for i, p := range payloads {
		records[i] = reconcile.Record{Payload: p}
	}
	resolved, _ := resolver.ResolveAll(collection, reconcile.OriginLocal, records)

	// ResolveAll skips duplicates, so match resolved payloads back by pointer.
	for _, rec := range resolved {
		if rec.Identity != identity {
			continue
		}
		for i, p := range payloads {
			if p == rec.Payload {
				return i
			}
		}
	}
	return -1
}
