package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bluedeem/clinic-bot/internal/http/middleware"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// ChatHandler serves the direct chat API used by non-webhook clients.
type ChatHandler struct {
	processor   MessageProcessor
	limiter     *middleware.UserLimiter
	development bool
	logger      *logging.Logger
}

// NewChatHandler builds the chat endpoint. development controls whether error
// detail leaks into responses.
func NewChatHandler(processor MessageProcessor, limiter *middleware.UserLimiter, development bool, logger *logging.Logger) *ChatHandler {
	return &ChatHandler{
		processor:   processor,
		limiter:     limiter,
		development: development,
		logger:      logger,
	}
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
	Message  string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Handle answers POST /api/chat.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Message = strings.TrimSpace(req.Message)
	if req.Platform == "" {
		req.Platform = "api"
	}
	if req.UserID == "" || req.Message == "" {
		http.Error(w, "user_id and message are required", http.StatusBadRequest)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(req.Platform+":"+req.UserID) {
		writeJSON(w, http.StatusOK, chatResponse{Response: rateLimitReply})
		return
	}

	reply, err := h.processor.Process(r.Context(), req.UserID, req.Platform, req.Message)
	if err != nil {
		h.logger.Error("chat processing failed", "user_id", req.UserID, "error", err)
		detail := "internal server error"
		if h.development {
			detail = err.Error()
		}
		http.Error(w, detail, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}
