package tombstone

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lesson-sync/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTokenTTL is how long a clear confirmation token stays valid.
const DefaultTokenTTL = 5 * time.Minute

// ErrConfirmationRequired is returned by ClearAll when the confirmation token
// is missing, unknown, expired, already used, or issued for another collection.
var ErrConfirmationRequired = errors.New("tombstone clear requires a valid confirmation token")

// Backend persists the tombstone map of each collection (identity -> creation time).
type Backend interface {
	LoadTombstones(ctx context.Context, collection string) (map[string]time.Time, error)
	// UpdateTombstones runs fn against the current map and persists the result
	// atomically. Nothing is written when fn returns an error.
	UpdateTombstones(ctx context.Context, collection string, fn func(map[string]time.Time) error) error
}

// Tombstone is one deleted identity.
type Tombstone struct {
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// Token authorizes a single ClearAll of one collection.
type Token struct {
	Value      string    `json:"token"`
	Collection string    `json:"collection"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Ledger is the tombstone ledger.
type Ledger struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu     sync.Mutex
	tokens map[string]Token
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTokenTTL sets the confirmation token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger creates a ledger over backend.
func NewLedger(backend Backend, opts ...Option) *Ledger {
	l := &Ledger{
		backend: backend,
		ttl:     DefaultTokenTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		tokens:  make(map[string]Token),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mark tombstones identity. Marking an identity twice keeps the first timestamp.
func (l *Ledger) Mark(ctx context.Context, collection, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("cannot tombstone an empty identity in %s", collection)
	}

	err := l.backend.UpdateTombstones(ctx, collection, func(m map[string]time.Time) error {
		if _, exists := m[identity]; !exists {
			m[identity] = l.now().UTC()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s/%s deleted: %w", collection, identity, err)
	}

	l.logger.Info("Tombstone marked", zap.String("collection", collection), zap.String("identity", identity))
	return nil
}

// IsTombstoned reports whether identity is tombstoned.
func (l *Ledger) IsTombstoned(ctx context.Context, collection, identity string) (bool, error) {
	m, err := l.backend.LoadTombstones(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to load tombstones for %s: %w", collection, err)
	}
	_, ok := m[identity]
	return ok, nil
}

// List returns the tombstones of a collection ordered by creation time.
func (l *Ledger) List(ctx context.Context, collection string) ([]Tombstone, error) {
	m, err := l.backend.LoadTombstones(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load tombstones for %s: %w", collection, err)
	}

	list := make([]Tombstone, 0, len(m))
	for id, at := range m {
		list = append(list, Tombstone{Identity: id, CreatedAt: at})
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].Identity < list[j].Identity
	})
	return list, nil
}

// Snapshot returns the tombstone set consumed by the diff engine.
func (l *Ledger) Snapshot(ctx context.Context, collection string) (reconcile.TombstoneSet, error) {
	m, err := l.backend.LoadTombstones(ctx, collection)
	if err != nil {
		return nil, err
	}
	set := make(reconcile.TombstoneSet, len(m))
	for id := range m {
		set[id] = struct{}{}
	}
	return set, nil
}

// RequestClear issues a confirmation token for ClearAll on collection.
func (l *Ledger) RequestClear(collection string) Token {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for value, tok := range l.tokens {
		if !now.Before(tok.ExpiresAt) {
			delete(l.tokens, value)
		}
	}

	tok := Token{
		Value:      uuid.New().String(),
		Collection: collection,
		ExpiresAt:  now.Add(l.ttl),
	}
	l.tokens[tok.Value] = tok
	return tok
}

// ClearAll removes every tombstone of collection and returns how many were
// removed. The token is consumed even when the backend write fails.
func (l *Ledger) ClearAll(ctx context.Context, collection, token string) (int, error) {
	if err := l.redeem(collection, token); err != nil {
		return 0, err
	}

	cleared := 0
	err := l.backend.UpdateTombstones(ctx, collection, func(m map[string]time.Time) error {
		cleared = len(m)
		for id := range m {
			delete(m, id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear tombstones for %s: %w", collection, err)
	}

	l.logger.Warn("Tombstones cleared", zap.String("collection", collection), zap.Int("count", cleared))
	return cleared, nil
}

func (l *Ledger) redeem(collection, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tok, ok := l.tokens[token]
	if !ok {
		return ErrConfirmationRequired
	}
	if tok.Collection != collection {
		return ErrConfirmationRequired
	}
	delete(l.tokens, token)
	if !l.now().Before(tok.ExpiresAt) {
		return ErrConfirmationRequired
	}
	return nil
}
