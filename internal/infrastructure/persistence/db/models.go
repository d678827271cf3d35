package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	ProfilePicture string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Project struct {
	ID               uuid.UUID
	Name             string
	Description      string
	CreatorID        uuid.UUID
	CurrentVersionID pgtype.UUID
	VersionIds       []uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ProjectAccess struct {
	ProjectID  uuid.UUID
	UserID     uuid.UUID
	AccessType string
	AddedAt    time.Time
	Position   int32
}

type AccessRequest struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	UserID      uuid.UUID
	RequestType string
	Message     string
	RequestedAt time.Time
	Status      string
	DecidedBy   pgtype.UUID
	DecidedAt   pgtype.Timestamptz
}

type Version struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	VersionNumber int32
	FileKey       string
	FileUrl       string
	FileName      string
	FileSize      int64
	ContentType   string
	UploadedBy    uuid.UUID
	Status        string
	Notes         string
	ApprovedBy    pgtype.UUID
	ApprovedAt    pgtype.Timestamptz
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Activity struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Action    string
	Details   string
	Metadata  []byte
	CreatedAt time.Time
}

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Type        string
	Message     string
	ProjectID   pgtype.UUID
	VersionID   pgtype.UUID
	FromUserID  pgtype.UUID
	Link        string
	Read        bool
	CreatedAt   time.Time
}
