// Package handlers holds the HTTP endpoints: platform webhooks, the direct
// chat API and health.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bluedeem/clinic-bot/internal/dedupe"
	"github.com/bluedeem/clinic-bot/internal/http/middleware"
	"github.com/bluedeem/clinic-bot/internal/observability/metrics"
	"github.com/bluedeem/clinic-bot/internal/platforms"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// rateLimitReply is sent to users who exceed the per-minute message budget.
const rateLimitReply = "⚠️ عدد الرسائل كبير. انتظر دقيقة وحاول مرة ثانية 🙏"

// MessageProcessor handles one inbound message end to end.
type MessageProcessor interface {
	Process(ctx context.Context, userID, platform, message string) (string, error)
}

// WebhookHandler serves the per-platform webhook endpoints.
type WebhookHandler struct {
	adapters  map[string]platforms.Adapter
	whatsapp  *platforms.WhatsApp
	processor MessageProcessor
	dedupe    dedupe.Store
	limiter   *middleware.UserLimiter
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewWebhookHandler wires the webhook endpoints. whatsapp may be nil when the
// channel is not configured; it additionally serves the GET handshake.
func NewWebhookHandler(adapters []platforms.Adapter, whatsapp *platforms.WhatsApp, processor MessageProcessor, dedupeStore dedupe.Store, limiter *middleware.UserLimiter, m *metrics.Metrics, logger *logging.Logger) *WebhookHandler {
	byName := make(map[string]platforms.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &WebhookHandler{
		adapters:  byName,
		whatsapp:  whatsapp,
		processor: processor,
		dedupe:    dedupeStore,
		limiter:   limiter,
		metrics:   m,
		logger:    logger,
	}
}

// VerifyWhatsApp answers the Meta subscription handshake.
func (h *WebhookHandler) VerifyWhatsApp(w http.ResponseWriter, r *http.Request) {
	if h.whatsapp == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	challenge, ok := h.whatsapp.VerifyWebhook(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if !ok {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// HandleMessage processes one webhook delivery for the platform named in the
// URL.
func (h *WebhookHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	adapter, ok := h.adapters[platform]
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !adapter.VerifySignature(body, r.Header.Get("X-Hub-Signature-256")) {
		h.metrics.ObserveInbound(platform, "bad_signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	msg, err := adapter.ParseIncoming(body)
	if err != nil {
		h.metrics.ObserveInbound(platform, "malformed")
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	if msg == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx := r.Context()
	if msg.DeliveryID != "" && h.dedupe != nil {
		first, err := h.dedupe.MarkProcessed(ctx, platform, msg.DeliveryID)
		if err != nil {
			h.logger.Error("dedupe check failed", "platform", platform, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !first {
			h.metrics.ObserveInbound(platform, "duplicate")
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_processed"})
			return
		}
	}

	if h.limiter != nil && !h.limiter.Allow(platform+":"+msg.UserID) {
		h.metrics.ObserveInbound(platform, "rate_limited")
		if err := adapter.Send(ctx, msg.UserID, rateLimitReply); err != nil {
			h.logger.Warn("rate limit reply failed", "platform", platform, "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rate_limited"})
		return
	}

	reply, err := h.processor.Process(ctx, msg.UserID, platform, msg.Text)
	if err != nil {
		h.metrics.ObserveInbound(platform, "error")
		h.logger.Error("message processing failed", "platform", platform, "user_id", msg.UserID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := adapter.Send(ctx, msg.UserID, reply); err != nil {
		h.metrics.ObserveInbound(platform, "send_failed")
		h.logger.Error("reply delivery failed", "platform", platform, "user_id", msg.UserID, "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed", "delivery": "failed"})
		return
	}

	h.metrics.ObserveInbound(platform, "ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
