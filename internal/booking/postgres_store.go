package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists booking state and tickets in the relational database.
type PostgresStore struct {
	db querier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetState returns the identity's in-progress record, or nil.
func (s *PostgresStore) GetState(ctx context.Context, userID, platform string) (*Record, error) {
	query := `
		SELECT state, data_json, updated_at
		FROM booking_states
		WHERE user_id = $1 AND platform = $2
	`
	rec := Record{UserID: userID, Platform: platform}
	var dataJSON []byte
	err := s.db.QueryRow(ctx, query, userID, platform).Scan(&rec.State, &dataJSON, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("booking: get state: %w", err)
	}
	if err := json.Unmarshal(dataJSON, &rec.Data); err != nil {
		return nil, fmt.Errorf("booking: decode state data: %w", err)
	}
	return &rec, nil
}

// SetState upserts the identity's record.
func (s *PostgresStore) SetState(ctx context.Context, rec *Record) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("booking: encode state data: %w", err)
	}
	query := `
		INSERT INTO booking_states (user_id, platform, state, data_json, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, platform)
		DO UPDATE SET state = EXCLUDED.state, data_json = EXCLUDED.data_json, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, rec.UserID, rec.Platform, rec.State, dataJSON, time.Now().UTC()); err != nil {
		return fmt.Errorf("booking: set state: %w", err)
	}
	return nil
}

// DeleteState removes the identity's record, reporting whether one existed.
func (s *PostgresStore) DeleteState(ctx context.Context, userID, platform string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM booking_states WHERE user_id = $1 AND platform = $2`, userID, platform)
	if err != nil {
		return false, fmt.Errorf("booking: delete state: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveTicket appends a completed ticket.
func (s *PostgresStore) SaveTicket(ctx context.Context, t *Ticket) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("booking: encode ticket: %w", err)
	}
	query := `
		INSERT INTO booking_tickets (booking_id, user_id, platform, payload_json, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.Exec(ctx, query, t.BookingID, t.UserID, t.Platform, payload, t.Status, t.CreatedAt); err != nil {
		return fmt.Errorf("booking: save ticket: %w", err)
	}
	return nil
}
