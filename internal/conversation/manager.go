package conversation

import (
	"context"
	"time"

	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// recentLimit bounds the history window read back for prompting.
const recentLimit = 10

// Manager wraps the turn store with the read/record policy the reply path
// needs: history reads and writes are best effort and never block a reply.
type Manager struct {
	store  TurnStore
	logger *logging.Logger
	now    func() time.Time
}

// NewManager builds a manager over the store.
func NewManager(store TurnStore, logger *logging.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// RecordTurn appends one turn. Store failures are logged and swallowed so a
// broken history backend cannot block the reply path.
func (m *Manager) RecordTurn(ctx context.Context, id Identity, message, response string) {
	turn := Turn{Message: message, Response: response, Timestamp: m.now().UTC()}
	if err := m.store.Append(ctx, id, turn); err != nil {
		m.logger.Warn("failed to record conversation turn",
			"user_id", id.UserID, "platform", id.Platform, "error", err)
	}
}

// Recent returns the newest turns in chronological order. Read failures are
// logged and return an empty history.
func (m *Manager) Recent(ctx context.Context, id Identity) []Turn {
	turns, err := m.store.Recent(ctx, id, recentLimit)
	if err != nil {
		m.logger.Warn("failed to load conversation history",
			"user_id", id.UserID, "platform", id.Platform, "error", err)
		return nil
	}
	return turns
}
