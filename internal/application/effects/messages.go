package effects

import (
	"fmt"

	"github.com/projectnexus/nexus/internal/domain"
)

// ProjectLink is the UI path of a project.
func ProjectLink(id domain.ProjectID) string { return "/project/" + id.String() }

// VersionsLink is the UI path of a project's version list.
func VersionsLink(id domain.ProjectID) string { return ProjectLink(id) + "/versions" }

// SettingsLink is the UI path of a project's settings page.
func SettingsLink(id domain.ProjectID) string { return ProjectLink(id) + "/settings" }

func projectRef(p *domain.Project) *domain.ProjectID {
	id := p.ID
	return &id
}

func NewVersionAwaiting(p *domain.Project, v *domain.Version) *domain.Notification {
	vid, from := v.ID, v.UploadedBy
	return &domain.Notification{
		Recipient: p.Creator,
		Type:      domain.NotifyNewVersion,
		Message:   fmt.Sprintf("A new version has been uploaded to project %s and awaits your approval", p.Name),
		ProjectID: projectRef(p),
		VersionID: &vid,
		FromUser:  &from,
		Link:      VersionsLink(p.ID),
	}
}

func VersionDecided(p *domain.Project, v *domain.Version, by domain.UserID) *domain.Notification {
	t := domain.NotifyVersionApproved
	if v.Status == domain.VersionRejected {
		t = domain.NotifyVersionRejected
	}
	vid := v.ID
	return &domain.Notification{
		Recipient: v.UploadedBy,
		Type:      t,
		Message:   fmt.Sprintf("Your version upload for project %s has been %s", p.Name, v.Status),
		ProjectID: projectRef(p),
		VersionID: &vid,
		FromUser:  &by,
		Link:      VersionsLink(p.ID),
	}
}

func AccessGranted(p *domain.Project, to domain.UserID, t domain.AccessType, by domain.UserID) *domain.Notification {
	return &domain.Notification{
		Recipient: to,
		Type:      domain.NotifyAccessGranted,
		Message:   fmt.Sprintf("You have been granted %s access to project %s", t, p.Name),
		ProjectID: projectRef(p),
		FromUser:  &by,
		Link:      ProjectLink(p.ID),
	}
}

func AccessRequested(p *domain.Project, requester *domain.User) *domain.Notification {
	from := requester.ID
	return &domain.Notification{
		Recipient: p.Creator,
		Type:      domain.NotifyAccessRequested,
		Message:   fmt.Sprintf("%s has requested access to your project %s", displayName(requester), p.Name),
		ProjectID: projectRef(p),
		FromUser:  &from,
		Link:      SettingsLink(p.ID),
	}
}

func displayName(u *domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
