// Package conversation keeps the per-identity turn log, builds prompt-ready
// history summaries, and hosts the router that orchestrates one inbound
// message end to end.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Identity names one conversation partner on one channel.
type Identity struct {
	UserID   string
	Platform string
}

// Key returns the canonical storage key for the identity.
func (id Identity) Key() string {
	return id.Platform + ":" + id.UserID
}

// Turn is one message/response pair. Turns are append-only; they are never
// updated or deleted once written.
type Turn struct {
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnStore persists the turn log.
type TurnStore interface {
	// Append adds one turn to the identity's log.
	Append(ctx context.Context, id Identity, turn Turn) error
	// Recent returns the newest limit turns in chronological order
	// (oldest of the window first).
	Recent(ctx context.Context, id Identity, limit int) ([]Turn, error)
}

// InMemoryTurnStore keeps turn logs in process memory.
type InMemoryTurnStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewInMemoryTurnStore builds an empty in-memory turn store.
func NewInMemoryTurnStore() *InMemoryTurnStore {
	return &InMemoryTurnStore{turns: map[string][]Turn{}}
}

func (s *InMemoryTurnStore) Append(_ context.Context, id Identity, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[id.Key()] = append(s.turns[id.Key()], turn)
	return nil
}

func (s *InMemoryTurnStore) Recent(_ context.Context, id Identity, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.turns[id.Key()]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]Turn, len(log))
	copy(out, log)
	return out, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresTurnStore persists turn logs in the conversation_turns table.
type PostgresTurnStore struct {
	db querier
}

// NewPostgresTurnStore builds a store over the pool.
func NewPostgresTurnStore(pool *pgxpool.Pool) *PostgresTurnStore {
	if pool == nil {
		panic("conversation: pgx pool cannot be nil")
	}
	return &PostgresTurnStore{db: pool}
}

func newPostgresTurnStoreWithQuerier(db querier) *PostgresTurnStore {
	return &PostgresTurnStore{db: db}
}

func (s *PostgresTurnStore) Append(ctx context.Context, id Identity, turn Turn) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversation_turns (user_id, platform, message, response, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id.UserID, id.Platform, turn.Message, turn.Response, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("conversation: append turn: %w", err)
	}
	return nil
}

func (s *PostgresTurnStore) Recent(ctx context.Context, id Identity, limit int) ([]Turn, error) {
	rows, err := s.db.Query(ctx, `
		SELECT message, response, created_at
		FROM conversation_turns
		WHERE user_id = $1 AND platform = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		id.UserID, id.Platform, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: load turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Message, &t.Response, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("conversation: scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: read turns: %w", err)
	}

	// Query returns newest first; callers expect chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
