package handler

import (
	"net/http"

	"github.com/uniwhats/desk/internal/service"
	"github.com/uniwhats/desk/pkg/logger"
)

// DirectoryHandler serves departments, users and contacts.
type DirectoryHandler struct {
	service *service.DirectoryService
	logger  *logger.Logger
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(svc *service.DirectoryService, log *logger.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		service: svc,
		logger:  log,
	}
}

// Departments handles GET /api/departments
func (h *DirectoryHandler) Departments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.Departments(r.Context())
	if err != nil {
		h.logger.Error("failed to list departments")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

// Users handles GET /api/users
func (h *DirectoryHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Users(r.Context())
	if err != nil {
		h.logger.Error("failed to list users")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Contacts handles GET /api/contacts
func (h *DirectoryHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.Contacts(r.Context())
	if err != nil {
		h.logger.Error("failed to list contacts")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}
