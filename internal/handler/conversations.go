package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniwhats/desk/internal/middleware"
	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/service"
	"github.com/uniwhats/desk/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	q := r.URL.Query()

	filter := service.ListFilter{
		DepartmentID: q.Get("department_id"),
		AssigneeID:   q.Get("assignee_user_id"),
		Status:       model.ConversationStatus(q.Get("status")),
		Unassigned:   q.Get("unassigned") == "true",
	}

	conversations, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeServiceError(w, err)
		return
	}

	if conversations == nil {
		conversations = []*model.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

// Assign handles POST /api/conversations/{id}/assign
func (h *ConversationHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Assign(ctx, actor, id, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// Close handles POST /api/conversations/{id}/close
func (h *ConversationHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	id := chi.URLParam(r, "id")

	if err := h.service.Close(ctx, actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// Reopen handles POST /api/conversations/{id}/reopen
func (h *ConversationHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	id := chi.URLParam(r, "id")

	if err := h.service.Reopen(ctx, actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// SetTags handles POST /api/conversations/{id}/tags
func (h *ConversationHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	id := chi.URLParam(r, "id")

	var req model.TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetTags(ctx, actor, id, req.Tags); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// MarkRead handles POST /api/conversations/{id}/mark-read
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(ctx)
	id := chi.URLParam(r, "id")

	if err := h.service.MarkRead(ctx, actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w)
}
