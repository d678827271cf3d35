// Package realtime pushes new notifications to connected WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Message is the frame sent for each notification.
type Message struct {
	Type         string              `json:"type"`
	Recipient    string              `json:"recipient"`
	Notification NotificationPayload `json:"notification"`
}

type NotificationPayload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ProjectID string    `json:"project_id,omitempty"`
	VersionID string    `json:"version_id,omitempty"`
	FromUser  string    `json:"from_user,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessage(n *domain.Notification) Message {
	p := NotificationPayload{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.ProjectID != nil {
		p.ProjectID = n.ProjectID.String()
	}
	if n.VersionID != nil {
		p.VersionID = n.VersionID.String()
	}
	if n.FromUser != nil {
		p.FromUser = n.FromUser.String()
	}
	return Message{Type: "notification", Recipient: n.Recipient.String(), Notification: p}
}

type subscriber struct {
	userID    string
	msgs      chan []byte
	closeSlow func()
}

// Hub fans notifications out to the recipient's open connections. A
// subscriber that cannot keep up is disconnected.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{}), log: log}
}

// Publish implements ports.NotificationPublisher.
func (h *Hub) Publish(n *domain.Notification) {
	msg, err := json.Marshal(newMessage(n))
	if err != nil {
		h.log.Warn().Err(err).Msg("encode notification frame")
		return
	}
	h.deliver(n.Recipient.String(), msg)
}

func (h *Hub) deliver(userID string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		if s.userID != userID {
			continue
		}
		select {
		case s.msgs <- msg:
		default:
			go s.closeSlow()
		}
	}
}

// Subscribers returns the number of open connections for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for s := range h.subscribers {
		if s.userID == userID {
			n++
		}
	}
	return n
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	h.mu.Unlock()
}

// Serve upgrades the request and streams userID's notifications until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, opts *websocket.AcceptOptions) error {
	var (
		mu     sync.Mutex
		conn   *websocket.Conn
		closed bool
	)
	s := &subscriber{
		userID: userID,
		msgs:   make(chan []byte, subscriberBuffer),
		closeSlow: func() {
			mu.Lock()
			defer mu.Unlock()
			closed = true
			if conn != nil {
				conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
			}
		},
	}
	h.add(s)
	defer h.remove(s)

	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		return err
	}
	mu.Lock()
	if closed {
		mu.Unlock()
		return net.ErrClosed
	}
	conn = c
	mu.Unlock()
	defer c.CloseNow()

	h.log.Debug().Str("user_id", userID).Msg("notification stream opened")
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case msg := <-s.msgs:
			if err := write(ctx, c, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}

var _ ports.NotificationPublisher = (*Hub)(nil)
