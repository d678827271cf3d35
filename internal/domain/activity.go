package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction names an audited event on a project.
type ActivityAction string

const (
	ActionProjectCreated      ActivityAction = "project_created"
	ActionProjectUpdated      ActivityAction = "project_updated"
	ActionProjectDeleted      ActivityAction = "project_deleted"
	ActionVersionUploaded     ActivityAction = "version_uploaded"
	ActionVersionApproved     ActivityAction = "version_approved"
	ActionVersionRejected     ActivityAction = "version_rejected"
	ActionVersionDeleted      ActivityAction = "version_deleted"
	ActionVersionReverted     ActivityAction = "version_reverted"
	ActionCollaboratorAdded   ActivityAction = "collaborator_added"
	ActionCollaboratorRemoved ActivityAction = "collaborator_removed"
	ActionAccessRequested     ActivityAction = "access_requested"
	ActionAccessGranted       ActivityAction = "access_granted"
	ActionAccessDenied        ActivityAction = "access_denied"
)

// Activity is an append-only audit entry. The core never reads it back for
// decisions.
type Activity struct {
	ID        uuid.UUID
	ProjectID ProjectID
	UserID    UserID
	Action    ActivityAction
	Details   string
	Metadata  map[string]any
	CreatedAt time.Time
}
