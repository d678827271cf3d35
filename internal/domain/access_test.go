package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

func newUserID() UserID { return NewUserID(uuid.New()) }

func TestCanAccessTruthTable(t *testing.T) {
	creator, editor, viewer, stranger := newUserID(), newUserID(), newUserID(), newUserID()
	now := time.Now()
	p := NewProject(NewProjectID(uuid.New()), "p", "", creator, []AccessEntry{
		{UserID: editor, Type: AccessEditor},
		{UserID: viewer, Type: AccessViewer},
	}, now)

	tests := []struct {
		name  string
		user  UserID
		level AccessLevel
		want  bool
	}{
		{"creator view", creator, LevelView, true},
		{"creator edit", creator, LevelEdit, true},
		{"creator admin", creator, LevelAdmin, true},
		{"editor view", editor, LevelView, true},
		{"editor edit", editor, LevelEdit, true},
		{"editor admin", editor, LevelAdmin, false},
		{"viewer view", viewer, LevelView, true},
		{"viewer edit", viewer, LevelEdit, false},
		{"viewer admin", viewer, LevelAdmin, false},
		{"stranger view", stranger, LevelView, false},
		{"stranger edit", stranger, LevelEdit, false},
		{"stranger admin", stranger, LevelAdmin, false},
		{"unknown level", creator, AccessLevel("owner"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(p, tt.user, tt.level); got != tt.want {
				t.Errorf("CanAccess(%s) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestCanAccessEmptyProject(t *testing.T) {
	if CanAccess(nil, newUserID(), LevelView) {
		t.Error("nil project must deny")
	}
	if CanAccess(&Project{}, newUserID(), LevelView) {
		t.Error("empty access list must deny")
	}
}

func TestEffectiveAccess(t *testing.T) {
	creator := newUserID()
	p := NewProject(NewProjectID(uuid.New()), "p", "", creator, nil, time.Now())
	got, ok := EffectiveAccess(p, creator)
	if !ok || got != AccessCreator {
		t.Fatalf("EffectiveAccess = %q, %v", got, ok)
	}
	if _, ok := EffectiveAccess(p, newUserID()); ok {
		t.Fatal("stranger should have no access")
	}
}

func TestAuthorizeReturnsLevelError(t *testing.T) {
	creator, viewer := newUserID(), newUserID()
	p := NewProject(NewProjectID(uuid.New()), "p", "", creator, []AccessEntry{{UserID: viewer, Type: AccessViewer}}, time.Now())

	if err := Authorize(p, viewer, LevelView); err != nil {
		t.Fatalf("viewer view: %v", err)
	}
	if err := Authorize(p, viewer, LevelEdit); !errors.Is(err, domerrors.ErrEditAccessRequired) {
		t.Fatalf("viewer edit = %v", err)
	}
	if err := Authorize(p, viewer, LevelAdmin); !errors.Is(err, domerrors.ErrAdminAccessRequired) {
		t.Fatalf("viewer admin = %v", err)
	}
	if err := Authorize(p, newUserID(), LevelView); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Fatalf("stranger view kind = %v", domerrors.KindOf(err))
	}
}
