package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// simpleAdapter covers the channels whose provider integration is not wired
// yet: a flat JSON inbound shape, log-only outbound, optional HMAC check.
type simpleAdapter struct {
	name   string
	secret string
	logger *logging.Logger
}

// NewInstagram builds the Instagram adapter.
func NewInstagram(secret string, logger *logging.Logger) Adapter {
	return &simpleAdapter{name: PlatformInstagram, secret: secret, logger: logger}
}

// NewTikTok builds the TikTok adapter.
func NewTikTok(secret string, logger *logging.Logger) Adapter {
	return &simpleAdapter{name: PlatformTikTok, secret: secret, logger: logger}
}

func (a *simpleAdapter) Name() string { return a.name }

func (a *simpleAdapter) ParseIncoming(body []byte) (*Message, error) {
	var payload struct {
		UserID    string `json:"user_id"`
		Message   string `json:"message"`
		MessageID string `json:"message_id"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: parse webhook: %w", a.name, err)
	}
	if payload.UserID == "" || payload.Message == "" {
		return nil, nil
	}
	return &Message{
		UserID:     payload.UserID,
		Text:       payload.Message,
		DeliveryID: payload.MessageID,
		Timestamp:  payload.Timestamp,
		Type:       "text",
	}, nil
}

func (a *simpleAdapter) Send(_ context.Context, userID, text string) error {
	a.logger.Info("outbound message", "platform", a.name, "user_id", userID, "chars", len(text))
	return nil
}

func (a *simpleAdapter) VerifySignature(body []byte, signatureHeader string) bool {
	if a.secret == "" {
		return true
	}
	received := strings.TrimPrefix(signatureHeader, "sha256=")

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(received))
}
