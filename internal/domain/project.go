package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectID is a value object for project identity.
type ProjectID struct{ uuid.UUID }

// NewProjectID creates a new ProjectID from uuid.
func NewProjectID(id uuid.UUID) ProjectID { return ProjectID{UUID: id} }

// ParseProjectID parses the canonical string form.
func ParseProjectID(s string) (ProjectID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProjectID{}, err
	}
	return ProjectID{UUID: id}, nil
}

// String returns the canonical string form.
func (p ProjectID) String() string { return p.UUID.String() }

// AccessEntry grants one user a role on a project.
type AccessEntry struct {
	UserID  UserID
	Type    AccessType
	AddedAt time.Time
}

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// DefaultRequestMessage is stored when a requester leaves the message empty.
const DefaultRequestMessage = "No message provided"

// AccessRequest is a user's request for elevated access. Requests are never
// deleted; they stay on the project as an audit trail.
type AccessRequest struct {
	ID          uuid.UUID
	UserID      UserID
	RequestType AccessType
	Message     string
	RequestedAt time.Time
	Status      RequestStatus
	DecidedBy   *UserID
	DecidedAt   *time.Time
}

// Project is a versioned file container owned by its creator.
type Project struct {
	ID             ProjectID
	Name           string
	Description    string
	Creator        UserID
	CurrentVersion *VersionID
	Versions       []VersionID
	AccessibleBy   []AccessEntry
	AccessRequests []AccessRequest
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProject builds a project whose access list holds exactly one creator
// entry for creator. Entries in initial that name the creator, or that carry
// the creator role for someone else, are dropped.
func NewProject(id ProjectID, name, description string, creator UserID, initial []AccessEntry, now time.Time) *Project {
	p := &Project{
		ID:          id,
		Name:        name,
		Description: description,
		Creator:     creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.AccessibleBy = append(p.AccessibleBy, AccessEntry{UserID: creator, Type: AccessCreator, AddedAt: now})
	seen := map[UserID]bool{creator: true}
	for _, e := range initial {
		if seen[e.UserID] || !e.Type.Grantable() {
			continue
		}
		seen[e.UserID] = true
		if e.AddedAt.IsZero() {
			e.AddedAt = now
		}
		p.AccessibleBy = append(p.AccessibleBy, e)
	}
	return p
}

// IsCreator reports whether userID created the project.
func (p *Project) IsCreator(userID UserID) bool {
	return p.Creator == userID
}

// UpsertAccess sets userID's role, refreshing the grant time.
func (p *Project) UpsertAccess(userID UserID, t AccessType, now time.Time) {
	for i := range p.AccessibleBy {
		if p.AccessibleBy[i].UserID == userID {
			p.AccessibleBy[i].Type = t
			p.AccessibleBy[i].AddedAt = now
			return
		}
	}
	p.AccessibleBy = append(p.AccessibleBy, AccessEntry{UserID: userID, Type: t, AddedAt: now})
}

// RemoveAccess drops userID's entry and reports whether one existed.
func (p *Project) RemoveAccess(userID UserID) bool {
	for i, e := range p.AccessibleBy {
		if e.UserID == userID {
			p.AccessibleBy = append(p.AccessibleBy[:i], p.AccessibleBy[i+1:]...)
			return true
		}
	}
	return false
}

// PendingRequestFor returns userID's open request, if any.
func (p *Project) PendingRequestFor(userID UserID) *AccessRequest {
	for i := range p.AccessRequests {
		r := &p.AccessRequests[i]
		if r.UserID == userID && r.Status == RequestPending {
			return r
		}
	}
	return nil
}

// FindRequest returns the request with id, if any.
func (p *Project) FindRequest(id uuid.UUID) *AccessRequest {
	for i := range p.AccessRequests {
		if p.AccessRequests[i].ID == id {
			return &p.AccessRequests[i]
		}
	}
	return nil
}

// PendingRequests returns the open requests in submission order.
func (p *Project) PendingRequests() []AccessRequest {
	out := make([]AccessRequest, 0, len(p.AccessRequests))
	for _, r := range p.AccessRequests {
		if r.Status == RequestPending {
			out = append(out, r)
		}
	}
	return out
}

// HasVersion reports whether id is listed in Versions.
func (p *Project) HasVersion(id VersionID) bool {
	for _, v := range p.Versions {
		if v == id {
			return true
		}
	}
	return false
}

// AddVersion appends id to Versions unless already present.
func (p *Project) AddVersion(id VersionID) {
	if !p.HasVersion(id) {
		p.Versions = append(p.Versions, id)
	}
}

// RemoveVersion drops id from Versions.
func (p *Project) RemoveVersion(id VersionID) {
	out := p.Versions[:0]
	for _, v := range p.Versions {
		if v != id {
			out = append(out, v)
		}
	}
	p.Versions = out
}

// IsCurrent reports whether id is the current version.
func (p *Project) IsCurrent(id VersionID) bool {
	return p.CurrentVersion != nil && *p.CurrentVersion == id
}

// SetCurrent points the project at id.
func (p *Project) SetCurrent(id VersionID) {
	v := id
	p.CurrentVersion = &v
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.CurrentVersion != nil {
		v := *p.CurrentVersion
		c.CurrentVersion = &v
	}
	c.Versions = append([]VersionID(nil), p.Versions...)
	c.AccessibleBy = append([]AccessEntry(nil), p.AccessibleBy...)
	c.AccessRequests = make([]AccessRequest, len(p.AccessRequests))
	for i, r := range p.AccessRequests {
		if r.DecidedBy != nil {
			u := *r.DecidedBy
			r.DecidedBy = &u
		}
		if r.DecidedAt != nil {
			t := *r.DecidedAt
			r.DecidedAt = &t
		}
		c.AccessRequests[i] = r
	}
	return &c
}
