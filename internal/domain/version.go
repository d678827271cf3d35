package domain

import (
	"time"

	"github.com/google/uuid"
)

// VersionID is a value object for version identity.
type VersionID struct{ uuid.UUID }

// NewVersionID creates a new VersionID from uuid.
func NewVersionID(id uuid.UUID) VersionID { return VersionID{UUID: id} }

// ParseVersionID parses the canonical string form.
func ParseVersionID(s string) (VersionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return VersionID{}, err
	}
	return VersionID{UUID: id}, nil
}

// String returns the canonical string form.
func (v VersionID) String() string { return v.UUID.String() }

// VersionStatus is the approval state. Approved and rejected are terminal.
type VersionStatus string

const (
	VersionPending  VersionStatus = "pending"
	VersionApproved VersionStatus = "approved"
	VersionRejected VersionStatus = "rejected"
)

// Decision reports whether s is a valid outcome of a pending version.
func (s VersionStatus) Decision() bool {
	return s == VersionApproved || s == VersionRejected
}

// FileRef points at the stored bytes of a version.
type FileRef struct {
	Key         string
	URL         string
	Name        string
	Size        int64
	ContentType string
}

// Version is one uploaded revision of a project's file.
type Version struct {
	ID            VersionID
	ProjectID     ProjectID
	VersionNumber int
	File          FileRef
	UploadedBy    UserID
	Status        VersionStatus
	Notes         string
	// ApprovedBy and ApprovedAt record whoever decided the version, whether
	// the decision was approval or rejection.
	ApprovedBy *UserID
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decide moves a pending version into its terminal state.
func (v *Version) Decide(status VersionStatus, by UserID, now time.Time) {
	v.Status = status
	u := by
	t := now
	v.ApprovedBy = &u
	v.ApprovedAt = &t
	v.UpdatedAt = now
}

// Clone returns a deep copy.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	c := *v
	if v.ApprovedBy != nil {
		u := *v.ApprovedBy
		c.ApprovedBy = &u
	}
	if v.ApprovedAt != nil {
		t := *v.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}
