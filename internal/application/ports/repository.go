package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/domain"
)

// UserRepository is the user directory. Lookups return (nil, nil) when no
// user matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update saves profile fields and the password hash. A taken email
	// returns ErrUserExists.
	Update(ctx context.Context, user *domain.User) error
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

// ProjectRepository persists the project aggregate: membership entries and
// access requests are saved together with the project row.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, projectID domain.ProjectID) error
	// ListForUser returns every project on which userID holds an access entry.
	ListForUser(ctx context.Context, userID domain.UserID) ([]*domain.Project, error)
}

// VersionFilter narrows ListByProject. Zero values mean no restriction.
type VersionFilter struct {
	Status      domain.VersionStatus
	AboveNumber int
	Limit       int
}

// VersionRepository persists versions. Create fails with
// domerrors.ErrVersionNumberTaken when (project, number) already exists.
type VersionRepository interface {
	Create(ctx context.Context, version *domain.Version) error
	GetByID(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) (*domain.Version, error)
	Update(ctx context.Context, version *domain.Version) error
	Delete(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) error
	// ListByProject returns versions ordered by version number, highest first.
	ListByProject(ctx context.Context, projectID domain.ProjectID, filter VersionFilter) ([]*domain.Version, error)
	// MaxVersionNumber returns the highest number in use across all statuses, 0 if none.
	MaxVersionNumber(ctx context.Context, projectID domain.ProjectID) (int, error)
	DeleteByProject(ctx context.Context, projectID domain.ProjectID) ([]*domain.Version, error)
}

// ActivityRepository stores the audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity) error
	ListByProject(ctx context.Context, projectID domain.ProjectID, limit, offset int) ([]*domain.Activity, error)
	CountByProject(ctx context.Context, projectID domain.ProjectID) (int, error)
}

// NotificationRepository stores user inboxes.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForRecipient(ctx context.Context, recipient domain.UserID, limit int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipient domain.UserID) (int, error)
	// MarkRead reports false when no notification with id belongs to recipient.
	MarkRead(ctx context.Context, recipient domain.UserID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, recipient domain.UserID) (int, error)
	DeleteReadBefore(ctx context.Context, before time.Time) (int, error)
}
