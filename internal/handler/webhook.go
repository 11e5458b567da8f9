package handler

import (
	"encoding/json"
	"net/http"

	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/service"
	"github.com/uniwhats/desk/pkg/logger"
)

// WebhookHandler ingests simulated WhatsApp deliveries.
type WebhookHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(svc *service.ConversationService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		logger:  log,
	}
}

// Inbound handles POST /api/webhook/whatsapp
func (h *WebhookHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	var req model.InboundMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, msg, err := h.service.Inbound(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
	})
}
