package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/projectnexus/nexus/internal/application/auth"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/lockout"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Verify(p, h string) bool       { return h == "h:"+p }

type stubIssuer struct{}

func (stubIssuer) IssueAccessToken(userID string, exp int64) (string, error) {
	return "token-" + userID, nil
}
func (stubIssuer) ValidateAccessToken(tok string) (string, error) {
	return strings.TrimPrefix(tok, "token-"), nil
}

func TestRegister(t *testing.T) {
	store := memory.NewStore()
	uc := auth.NewRegisterUser(store.Users(), plainHasher{})
	ctx := context.Background()

	res, err := uc.Execute(ctx, auth.RegisterUserInput{Email: " Alice@Example.com ", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Email != "alice@example.com" || res.User.Name != "alice" {
		t.Fatalf("user = %+v", res.User)
	}
	if _, err := uc.Execute(ctx, auth.RegisterUserInput{Email: "alice@example.com", Password: "password1"}); !errors.Is(err, domerrors.ErrUserExists) {
		t.Fatalf("duplicate = %v", err)
	}
	if _, err := uc.Execute(ctx, auth.RegisterUserInput{Email: "nope", Password: "password1"}); !errors.Is(err, domerrors.ErrInvalidEmail) {
		t.Fatalf("bad email = %v", err)
	}
	if _, err := uc.Execute(ctx, auth.RegisterUserInput{Email: "bob@example.com", Password: "short"}); !errors.Is(err, domerrors.ErrWeakPassword) {
		t.Fatalf("short password = %v", err)
	}
}

func TestLoginLocksAfterFailures(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	reg, err := auth.NewRegisterUser(store.Users(), plainHasher{}).Execute(ctx, auth.RegisterUserInput{Name: "Alice", Email: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	login := auth.NewLogin(store.Users(), plainHasher{}, stubIssuer{}, lockout.NewMemoryStore(3, 60), 0)

	res, err := login.Execute(ctx, auth.LoginInput{Email: "ALICE@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.AccessToken != "token-"+reg.User.ID.String() || res.ExpiresIn != auth.DefaultAccessTokenExpiry {
		t.Fatalf("login = %+v", res)
	}

	for i := 0; i < 3; i++ {
		if _, err := login.Execute(ctx, auth.LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, domerrors.ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v", i, err)
		}
	}
	if _, err := login.Execute(ctx, auth.LoginInput{Email: "alice@example.com", Password: "password1"}); !errors.Is(err, domerrors.ErrAccountLocked) {
		t.Fatalf("locked login = %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	reg := auth.NewRegisterUser(store.Users(), plainHasher{})
	alice, err := reg.Execute(ctx, auth.RegisterUserInput{Name: "Alice", Email: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Execute(ctx, auth.RegisterUserInput{Email: "bob@example.com", Password: "password1"}); err != nil {
		t.Fatal(err)
	}
	uc := auth.NewUpdateProfile(store.Users())
	str := func(s string) *string { return &s }

	if _, err := uc.Execute(ctx, auth.UpdateProfileInput{UserID: alice.User.ID}); !errors.Is(err, domerrors.ErrEmptyProfileUpdate) {
		t.Fatalf("empty update = %v", err)
	}
	if _, err := uc.Execute(ctx, auth.UpdateProfileInput{UserID: alice.User.ID, Email: str("BOB@example.com")}); !errors.Is(err, domerrors.ErrUserExists) {
		t.Fatalf("taken email = %v", err)
	}
	if _, err := uc.Execute(ctx, auth.UpdateProfileInput{UserID: alice.User.ID, Email: str("nope")}); !errors.Is(err, domerrors.ErrInvalidEmail) {
		t.Fatalf("bad email = %v", err)
	}
	res, err := uc.Execute(ctx, auth.UpdateProfileInput{
		UserID: alice.User.ID, Name: str(" Alice Liddell "), Email: str("Alice@Wonder.land"), ProfilePicture: str("https://img.example/a.png"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Name != "Alice Liddell" || res.User.Email != "alice@wonder.land" || res.User.ProfilePicture != "https://img.example/a.png" {
		t.Fatalf("user = %+v", res.User)
	}
	if u, _ := store.Users().GetByEmail(ctx, "alice@example.com"); u != nil {
		t.Fatal("old email still resolves")
	}
	if u, _ := store.Users().GetByEmail(ctx, "alice@wonder.land"); u == nil || u.ID != alice.User.ID {
		t.Fatal("new email does not resolve")
	}
}

func TestChangePassword(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	reg, err := auth.NewRegisterUser(store.Users(), plainHasher{}).Execute(ctx, auth.RegisterUserInput{Email: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	uc := auth.NewChangePassword(store.Users(), plainHasher{})

	err = uc.Execute(ctx, auth.ChangePasswordInput{UserID: reg.User.ID, CurrentPassword: "wrong", NewPassword: "password2"})
	if !errors.Is(err, domerrors.ErrWrongPassword) {
		t.Fatalf("wrong current = %v", err)
	}
	err = uc.Execute(ctx, auth.ChangePasswordInput{UserID: reg.User.ID, CurrentPassword: "password1", NewPassword: "short"})
	if !errors.Is(err, domerrors.ErrWeakPassword) {
		t.Fatalf("weak new = %v", err)
	}
	if err := uc.Execute(ctx, auth.ChangePasswordInput{UserID: reg.User.ID, CurrentPassword: "password1", NewPassword: "password2"}); err != nil {
		t.Fatal(err)
	}

	login := auth.NewLogin(store.Users(), plainHasher{}, stubIssuer{}, lockout.NewMemoryStore(5, 60), 0)
	if _, err := login.Execute(ctx, auth.LoginInput{Email: "alice@example.com", Password: "password1"}); !errors.Is(err, domerrors.ErrInvalidCredentials) {
		t.Fatalf("old password = %v", err)
	}
	if _, err := login.Execute(ctx, auth.LoginInput{Email: "alice@example.com", Password: "password2"}); err != nil {
		t.Fatalf("new password = %v", err)
	}
}
