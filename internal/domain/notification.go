package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a user-facing message.
type NotificationType string

const (
	NotifyNewVersion      NotificationType = "new_version"
	NotifyVersionApproved NotificationType = "version_approved"
	NotifyVersionRejected NotificationType = "version_rejected"
	NotifyAccessGranted   NotificationType = "access_granted"
	NotifyAccessRequested NotificationType = "access_requested"
	NotifyMention         NotificationType = "mention"
)

// Notification is a message in a user's inbox.
type Notification struct {
	ID        uuid.UUID
	Recipient UserID
	Type      NotificationType
	Message   string
	ProjectID *ProjectID
	VersionID *VersionID
	FromUser  *UserID
	Link      string
	Read      bool
	CreatedAt time.Time
}
