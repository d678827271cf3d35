package handlers

import (
	"time"

	"github.com/projectnexus/nexus/internal/domain"
)

type userView struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	return userView{ID: u.ID.String(), Email: u.Email, Name: u.Name, ProfilePicture: u.ProfilePicture, CreatedAt: u.CreatedAt}
}

type accessView struct {
	UserID     string    `json:"user_id"`
	AccessType string    `json:"access_type"`
	AddedAt    time.Time `json:"added_at"`
}

type requestView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	RequestType string     `json:"request_type"`
	Message     string     `json:"message"`
	RequestedAt time.Time  `json:"requested_at"`
	Status      string     `json:"status"`
	DecidedBy   string     `json:"decided_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

func newRequestView(r domain.AccessRequest) requestView {
	v := requestView{
		ID:          r.ID.String(),
		UserID:      r.UserID.String(),
		RequestType: string(r.RequestType),
		Message:     r.Message,
		RequestedAt: r.RequestedAt,
		Status:      string(r.Status),
		DecidedAt:   r.DecidedAt,
	}
	if r.DecidedBy != nil {
		v.DecidedBy = r.DecidedBy.String()
	}
	return v
}

type projectView struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Creator        string        `json:"creator"`
	CurrentVersion string        `json:"current_version,omitempty"`
	Versions       []string      `json:"versions"`
	AccessibleBy   []accessView  `json:"accessible_by"`
	AccessRequests []requestView `json:"access_requests,omitempty"`
	Access         string        `json:"access,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// newProjectView renders p for viewer. Access requests are shown to the
// creator only.
func newProjectView(p *domain.Project, viewer domain.UserID) projectView {
	v := projectView{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Creator:      p.Creator.String(),
		Versions:     make([]string, 0, len(p.Versions)),
		AccessibleBy: make([]accessView, 0, len(p.AccessibleBy)),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.CurrentVersion != nil {
		v.CurrentVersion = p.CurrentVersion.String()
	}
	for _, id := range p.Versions {
		v.Versions = append(v.Versions, id.String())
	}
	for _, e := range p.AccessibleBy {
		v.AccessibleBy = append(v.AccessibleBy, accessView{UserID: e.UserID.String(), AccessType: string(e.Type), AddedAt: e.AddedAt})
	}
	if t, ok := domain.EffectiveAccess(p, viewer); ok {
		v.Access = string(t)
	}
	if p.IsCreator(viewer) {
		for _, r := range p.AccessRequests {
			v.AccessRequests = append(v.AccessRequests, newRequestView(r))
		}
	}
	return v
}

type versionView struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	VersionNumber int        `json:"version_number"`
	FileURL       string     `json:"file_url"`
	FileName      string     `json:"file_name"`
	FileSize      int64      `json:"file_size"`
	FileType      string     `json:"file_type,omitempty"`
	UploadedBy    string     `json:"uploaded_by"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newVersionView(v *domain.Version) versionView {
	out := versionView{
		ID:            v.ID.String(),
		ProjectID:     v.ProjectID.String(),
		VersionNumber: v.VersionNumber,
		FileURL:       v.File.URL,
		FileName:      v.File.Name,
		FileSize:      v.File.Size,
		FileType:      v.File.ContentType,
		UploadedBy:    v.UploadedBy.String(),
		Status:        string(v.Status),
		Notes:         v.Notes,
		ApprovedAt:    v.ApprovedAt,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.ApprovedBy != nil {
		out.ApprovedBy = v.ApprovedBy.String()
	}
	return out
}

func newVersionViews(vs []*domain.Version) []versionView {
	out := make([]versionView, 0, len(vs))
	for _, v := range vs {
		out = append(out, newVersionView(v))
	}
	return out
}

type activityView struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Details   string         `json:"details"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func newActivityViews(as []*domain.Activity) []activityView {
	out := make([]activityView, 0, len(as))
	for _, a := range as {
		out = append(out, activityView{
			ID:        a.ID.String(),
			ProjectID: a.ProjectID.String(),
			UserID:    a.UserID.String(),
			Action:    string(a.Action),
			Details:   a.Details,
			Metadata:  a.Metadata,
			CreatedAt: a.CreatedAt,
		})
	}
	return out
}

type notificationView struct {
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

func newNotificationViews(ns []*domain.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		v := notificationView{
			ID:        n.ID.String(),
			Type:      string(n.Type),
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
		if n.ProjectID != nil {
			v.ProjectID = n.ProjectID.String()
		}
		if n.VersionID != nil {
			v.VersionID = n.VersionID.String()
		}
		if n.FromUser != nil {
			v.FromUser = n.FromUser.String()
		}
		out = append(out, v)
	}
	return out
}
