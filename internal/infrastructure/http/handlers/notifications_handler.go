package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/notification"
)

// StreamServer upgrades a request into a per-user notification stream.
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string, opts *websocket.AcceptOptions) error
}

// NotificationsHandler serves the caller's inbox and its live stream.
type NotificationsHandler struct {
	handlerBase
	list        *notification.List
	markRead    *notification.MarkRead
	markAllRead *notification.MarkAllRead
	stream      StreamServer
	origins     []string
}

// NewNotificationsHandler builds the handler. origins are the websocket
// origin patterns accepted besides same-host requests.
func NewNotificationsHandler(list *notification.List, markRead *notification.MarkRead, markAllRead *notification.MarkAllRead, stream StreamServer, origins []string, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		handlerBase: handlerBase{log: log},
		list:        list,
		markRead:    markRead,
		markAllRead: markAllRead,
		stream:      stream,
		origins:     origins,
	}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.list.Execute(r.Context(), notification.ListInput{Recipient: userID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": newNotificationViews(res.Notifications),
		"unread_count":  res.UnreadCount,
	})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid notification id")
		return
	}
	if err := h.markRead.Execute(r.Context(), notification.MarkReadInput{Recipient: userID, ID: id}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.markAllRead.Execute(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "all notifications marked as read", map[string]int{"updated": n})
}

// Stream pushes new notifications over a websocket until the client leaves.
func (h *NotificationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.stream == nil {
		writeErr(w, http.StatusNotImplemented, ErrCodeInternal, "notification stream disabled")
		return
	}
	// The server write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	err := h.stream.Serve(w, r, userID.String(), &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return
	}
	h.log.Debug().Err(err).Str("user_id", userID.String()).Msg("notification stream closed")
}
