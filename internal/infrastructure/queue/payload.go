package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/domain"
)

// notificationPayload is the JSON carried by TypeNotificationDeliver.
type notificationPayload struct {
	ID        uuid.UUID  `json:"id"`
	Recipient uuid.UUID  `json:"recipient"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	VersionID *uuid.UUID `json:"version_id,omitempty"`
	FromUser  *uuid.UUID `json:"from_user,omitempty"`
	Link      string     `json:"link,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func encodeNotification(n *domain.Notification) ([]byte, error) {
	p := notificationPayload{
		ID:        n.ID,
		Recipient: n.Recipient.UUID,
		Type:      string(n.Type),
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
	if n.ProjectID != nil {
		p.ProjectID = &n.ProjectID.UUID
	}
	if n.VersionID != nil {
		p.VersionID = &n.VersionID.UUID
	}
	if n.FromUser != nil {
		p.FromUser = &n.FromUser.UUID
	}
	return json.Marshal(p)
}

func decodeNotification(b []byte) (*domain.Notification, error) {
	var p notificationPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	n := &domain.Notification{
		ID:        p.ID,
		Recipient: domain.NewUserID(p.Recipient),
		Type:      domain.NotificationType(p.Type),
		Message:   p.Message,
		Link:      p.Link,
		CreatedAt: p.CreatedAt,
	}
	if p.ProjectID != nil {
		id := domain.NewProjectID(*p.ProjectID)
		n.ProjectID = &id
	}
	if p.VersionID != nil {
		id := domain.NewVersionID(*p.VersionID)
		n.VersionID = &id
	}
	if p.FromUser != nil {
		id := domain.NewUserID(*p.FromUser)
		n.FromUser = &id
	}
	return n, nil
}
