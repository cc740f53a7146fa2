package booking

import (
	"context"
	"sync"
	"time"
)

// Store persists booking state records and completed tickets.
type Store interface {
	// GetState returns the identity's in-progress record, or nil.
	GetState(ctx context.Context, userID, platform string) (*Record, error)
	// SetState upserts the identity's record in place.
	SetState(ctx context.Context, rec *Record) error
	// DeleteState removes the identity's record, reporting whether one existed.
	DeleteState(ctx context.Context, userID, platform string) (bool, error)
	// SaveTicket appends a completed ticket.
	SaveTicket(ctx context.Context, t *Ticket) error
}

// InMemoryStore keeps booking state and tickets in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	states  map[string]*Record
	tickets []*Ticket
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*Record)}
}

func stateKey(userID, platform string) string {
	return platform + ":" + userID
}

// GetState returns a copy of the identity's record, or nil.
func (s *InMemoryStore) GetState(_ context.Context, userID, platform string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.states[stateKey(userID, platform)]
	if !ok {
		return nil, nil
	}
	out := *rec
	out.Data = make(map[string]string, len(rec.Data))
	for k, v := range rec.Data {
		out.Data[k] = v
	}
	return &out, nil
}

// SetState upserts the record.
func (s *InMemoryStore) SetState(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.Data = make(map[string]string, len(rec.Data))
	for k, v := range rec.Data {
		cp.Data[k] = v
	}
	cp.UpdatedAt = time.Now().UTC()
	s.states[stateKey(rec.UserID, rec.Platform)] = &cp
	return nil
}

// DeleteState removes the record if present.
func (s *InMemoryStore) DeleteState(_ context.Context, userID, platform string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey(userID, platform)
	if _, ok := s.states[key]; !ok {
		return false, nil
	}
	delete(s.states, key)
	return true, nil
}

// SaveTicket appends the ticket.
func (s *InMemoryStore) SaveTicket(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	s.tickets = append(s.tickets, &cp)
	return nil
}

// Tickets returns a snapshot of stored tickets, for tests.
func (s *InMemoryStore) Tickets() []*Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}
