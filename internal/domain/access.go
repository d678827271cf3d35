package domain

import domerrors "github.com/projectnexus/nexus/internal/domain/errors"

// AccessType is the role stored on a membership entry.
type AccessType string

const (
	AccessCreator AccessType = "creator"
	AccessEditor  AccessType = "editor"
	AccessViewer  AccessType = "viewer"
)

// Valid reports whether t is one of the known roles.
func (t AccessType) Valid() bool {
	switch t {
	case AccessCreator, AccessEditor, AccessViewer:
		return true
	}
	return false
}

// Grantable reports whether t can be handed out to a collaborator.
// The creator role only exists on the project's own creator.
func (t AccessType) Grantable() bool {
	return t == AccessEditor || t == AccessViewer
}

// AccessLevel is the capability being checked, not the stored role.
type AccessLevel string

const (
	LevelView  AccessLevel = "view"
	LevelEdit  AccessLevel = "edit"
	LevelAdmin AccessLevel = "admin"
)

// Satisfies reports whether a holder of role t may act at level.
func (t AccessType) Satisfies(level AccessLevel) bool {
	switch level {
	case LevelView:
		return t == AccessCreator || t == AccessEditor || t == AccessViewer
	case LevelEdit:
		return t == AccessCreator || t == AccessEditor
	case LevelAdmin:
		return t == AccessCreator
	}
	return false
}

// CanAccess is the single authorization decision for project-scoped data.
// A nil project, an empty access list or an unknown level all deny.
func CanAccess(p *Project, userID UserID, level AccessLevel) bool {
	t, ok := EffectiveAccess(p, userID)
	if !ok {
		return false
	}
	return t.Satisfies(level)
}

// EffectiveAccess returns the stored role of userID on p.
func EffectiveAccess(p *Project, userID UserID) (AccessType, bool) {
	if p == nil {
		return "", false
	}
	for _, e := range p.AccessibleBy {
		if e.UserID == userID {
			return e.Type, true
		}
	}
	return "", false
}

// CanAccess is shorthand for CanAccess(p, userID, level).
func (p *Project) CanAccess(userID UserID, level AccessLevel) bool {
	return CanAccess(p, userID, level)
}

// Authorize is CanAccess returning the Forbidden error that matches level.
func Authorize(p *Project, userID UserID, level AccessLevel) error {
	if CanAccess(p, userID, level) {
		return nil
	}
	switch level {
	case LevelEdit:
		return domerrors.ErrEditAccessRequired
	case LevelAdmin:
		return domerrors.ErrAdminAccessRequired
	default:
		return domerrors.ErrNoProjectAccess
	}
}
