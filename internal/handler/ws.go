package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uniwhats/desk/internal/middleware"
	"github.com/uniwhats/desk/internal/notifier"
	"github.com/uniwhats/desk/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set headers on WebSocket dials, so the token rides
	// in the query string and the origin is not restricted here. CORS
	// policy is enforced on the REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades connections and attaches them to the notifier.
type WSHandler struct {
	notifier  *notifier.Notifier
	jwtSecret string
	logger    *logger.Logger
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(n *notifier.Notifier, jwtSecret string, log *logger.Logger) *WSHandler {
	return &WSHandler{
		notifier:  n,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// Serve handles GET /ws. Authentication accepts either a `token` query
// parameter or a standard bearer header.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); auth != "" {
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}
	}

	actor, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.logger.Info("websocket connected",
		zap.String("user_id", actor.ID),
		zap.String("role", string(actor.Role)),
	)

	obs := notifier.NewWSObserver(conn)
	obs.Run(h.notifier)

	h.logger.Info("websocket disconnected", zap.String("user_id", actor.ID))
}
