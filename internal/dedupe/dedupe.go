// Package dedupe tracks processed webhook delivery ids so replays are
// acknowledged without reprocessing.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store records delivery ids. MarkProcessed must be safe under concurrent
// delivery of the same id: exactly one caller observes first == true.
type Store interface {
	MarkProcessed(ctx context.Context, platform, deliveryID string) (first bool, err error)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists the id set with a unique constraint on
// (platform, delivery_id).
type PostgresStore struct {
	db execer
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("dedupe: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithExec(db execer) *PostgresStore {
	return &PostgresStore{db: db}
}

// MarkProcessed inserts the id, reporting whether this call created it. The
// conflict target makes the check-then-insert race safe.
func (s *PostgresStore) MarkProcessed(ctx context.Context, platform, deliveryID string) (bool, error) {
	query := `
		INSERT INTO processed_messages (platform, delivery_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform, delivery_id) DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, platform, deliveryID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("dedupe: mark processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InMemoryStore keeps the id set in process memory.
type InMemoryStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]bool)}
}

// MarkProcessed records the id, reporting whether it was new.
func (s *InMemoryStore) MarkProcessed(_ context.Context, platform, deliveryID string) (bool, error) {
	key := platform + ":" + deliveryID
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}
