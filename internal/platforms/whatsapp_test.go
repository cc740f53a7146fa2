package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluedeem/clinic-bot/pkg/logging"
)

const metaPayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"changes": [{
			"value": {
				"messages": [{
					"from": "966501234567",
					"id": "wamid.abc123",
					"timestamp": "1718175600",
					"type": "text",
					"text": {"body": "هلا"}
				}]
			}
		}]
	}]
}`

func TestWhatsAppParseIncoming(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{}, logging.Default())

	msg, err := w.ParseIncoming([]byte(metaPayload))
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "966501234567", msg.UserID)
	assert.Equal(t, "هلا", msg.Text)
	assert.Equal(t, "wamid.abc123", msg.DeliveryID)
	assert.Equal(t, "text", msg.Type)
}

func TestWhatsAppParseStatusOnlyPayload(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{}, logging.Default())

	msg, err := w.ParseIncoming([]byte(`{"entry":[{"changes":[{"value":{"statuses":[{"id":"x"}]}}]}]}`))
	require.NoError(t, err)
	assert.Nil(t, msg, "status updates carry no message")
}

func TestWhatsAppParseMalformedBody(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{}, logging.Default())

	_, err := w.ParseIncoming([]byte("not json"))
	assert.Error(t, err)
}

func TestWhatsAppVerifySignature(t *testing.T) {
	secret := "webhook-secret"
	w := NewWhatsApp(WhatsAppConfig{WebhookSecret: secret}, logging.Default())
	body := []byte(metaPayload)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.True(t, w.VerifySignature(body, valid))
	assert.False(t, w.VerifySignature(body, "sha256=deadbeef"))
	assert.False(t, w.VerifySignature([]byte("tampered"), valid))
}

func TestWhatsAppVerifySignatureSkippedWithoutSecret(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{}, logging.Default())
	assert.True(t, w.VerifySignature([]byte("anything"), ""))
}

func TestWhatsAppVerifyWebhookHandshake(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{VerifyToken: "tok"}, logging.Default())

	challenge, ok := w.VerifyWebhook("subscribe", "tok", "12345")
	assert.True(t, ok)
	assert.Equal(t, "12345", challenge)

	_, ok = w.VerifyWebhook("subscribe", "wrong", "12345")
	assert.False(t, ok)

	_, ok = w.VerifyWebhook("unsubscribe", "tok", "12345")
	assert.False(t, ok)
}

func TestWhatsAppSendRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "whatsapp", payload["messaging_product"])
		assert.Equal(t, "966501234567", payload["to"])
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWhatsApp(WhatsAppConfig{APIURL: srv.URL, AccessToken: "token"}, logging.Default())
	w.sleep = func(time.Duration) {}

	err := w.Send(context.Background(), "966501234567", "أهلاً")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWhatsAppSendGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWhatsApp(WhatsAppConfig{APIURL: srv.URL, AccessToken: "token"}, logging.Default())
	w.sleep = func(time.Duration) {}

	err := w.Send(context.Background(), "966501234567", "أهلاً")
	assert.Error(t, err)
}

func TestWhatsAppSendWithoutAPIConfigured(t *testing.T) {
	w := NewWhatsApp(WhatsAppConfig{}, logging.Default())
	assert.NoError(t, w.Send(context.Background(), "966501234567", "أهلاً"))
}

func TestFormatWhatsAppText(t *testing.T) {
	assert.Equal(t, "*⏰ أوقات الدوام:*\n\n1. فرع العليا", FormatWhatsAppText("⏰ أوقات الدوام:\n\n1. فرع العليا"))
	assert.Equal(t, "نص *غامق*", FormatWhatsAppText("نص **غامق**"))
	assert.Equal(t, "*جاهز*", FormatWhatsAppText("*جاهز*"), "already formatted text is untouched")
	assert.Equal(t, "", FormatWhatsAppText(""))
}

func TestSimpleAdapterParseAndVerify(t *testing.T) {
	ig := NewInstagram("secret", logging.Default())
	body := []byte(`{"user_id":"ig-9","message":"مرحبا","message_id":"mid.77"}`)

	msg, err := ig.ParseIncoming(body)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "ig-9", msg.UserID)
	assert.Equal(t, "مرحبا", msg.Text)
	assert.Equal(t, "mid.77", msg.DeliveryID)

	empty, err := ig.ParseIncoming([]byte(`{"user_id":"ig-9"}`))
	require.NoError(t, err)
	assert.Nil(t, empty)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	assert.True(t, ig.VerifySignature(body, "sha256="+hex.EncodeToString(mac.Sum(nil))))
	assert.False(t, ig.VerifySignature(body, "sha256=00"))

	tk := NewTikTok("", logging.Default())
	assert.Equal(t, PlatformTikTok, tk.Name())
	assert.True(t, tk.VerifySignature(body, ""))
	assert.NoError(t, tk.Send(context.Background(), "tt-1", "هلا"))
}
