package platforms

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bluedeem/clinic-bot/pkg/logging"
)

const (
	sendTimeout  = 10 * time.Second
	sendAttempts = 3
)

// WhatsAppConfig carries the Meta Cloud API settings.
type WhatsAppConfig struct {
	VerifyToken   string
	WebhookSecret string
	APIURL        string
	AccessToken   string
}

// WhatsApp is the Meta WhatsApp Business adapter.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
	logger *logging.Logger
	sleep  func(time.Duration)
}

// NewWhatsApp builds the adapter. Without APIURL and AccessToken outbound
// sends are logged instead of delivered, which keeps local development usable.
func NewWhatsApp(cfg WhatsAppConfig, logger *logging.Logger) *WhatsApp {
	return &WhatsApp{
		cfg:    cfg,
		client: &http.Client{Timeout: sendTimeout},
		logger: logger,
		sleep:  time.Sleep,
	}
}

func (w *WhatsApp) Name() string { return PlatformWhatsApp }

// Meta webhook payload, trimmed to the fields we read.
type metaEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseIncoming extracts the first text message from the Meta envelope.
// Payloads carrying only statuses return (nil, nil).
func (w *WhatsApp) ParseIncoming(body []byte) (*Message, error) {
	var envelope metaEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("whatsapp: parse webhook: %w", err)
	}
	if len(envelope.Entry) == 0 || len(envelope.Entry[0].Changes) == 0 {
		return nil, nil
	}
	messages := envelope.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil, nil
	}
	m := messages[0]
	return &Message{
		UserID:     m.From,
		Text:       m.Text.Body,
		DeliveryID: m.ID,
		Timestamp:  m.Timestamp,
		Type:       m.Type,
	}, nil
}

// Send delivers the reply through the Cloud API with retry and exponential
// backoff on any failure.
func (w *WhatsApp) Send(ctx context.Context, userID, text string) error {
	formatted := FormatWhatsAppText(text)

	if w.cfg.APIURL == "" || w.cfg.AccessToken == "" {
		w.logger.Info("whatsapp send skipped, api not configured", "user_id", userID)
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                userID,
		"type":              "text",
		"text":              map[string]string{"body": formatted},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: encode message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			w.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
		if lastErr = w.post(ctx, payload); lastErr == nil {
			return nil
		}
		w.logger.Warn("whatsapp send attempt failed", "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("whatsapp: send to %s: %w", userID, lastErr)
}

func (w *WhatsApp) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.APIURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// VerifySignature checks the X-Hub-Signature-256 header (hex HMAC-SHA256 of
// the raw body, "sha256=" prefixed). A missing secret accepts everything.
func (w *WhatsApp) VerifySignature(body []byte, signatureHeader string) bool {
	if w.cfg.WebhookSecret == "" {
		return true
	}
	received := strings.TrimPrefix(signatureHeader, "sha256=")

	mac := hmac.New(sha256.New, []byte(w.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(received))
}

// VerifyWebhook answers the Meta GET handshake: when mode is "subscribe" and
// the token matches, the challenge must be echoed back.
func (w *WhatsApp) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token != "" && token == w.cfg.VerifyToken {
		return challenge, true
	}
	return "", false
}
