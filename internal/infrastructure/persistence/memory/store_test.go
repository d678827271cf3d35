package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

func seedProject(t *testing.T, s *Store) *domain.Project {
	t.Helper()
	p := domain.NewProject(domain.NewProjectID(uuid.New()), "P", "", domain.NewUserID(uuid.New()), nil, time.Now())
	if err := s.Projects().Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func newVersion(pid domain.ProjectID, n int, status domain.VersionStatus) *domain.Version {
	return &domain.Version{ID: domain.NewVersionID(uuid.New()), ProjectID: pid, VersionNumber: n, Status: status}
}

func TestFailedTxDiscardsWrites(t *testing.T) {
	s := NewStore()
	p := seedProject(t, s)
	boom := errors.New("boom")
	err := s.WithProjectLock(context.Background(), p.ID, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Versions().Create(ctx, newVersion(p.ID, 1, domain.VersionApproved)); err != nil {
			return err
		}
		p.Name = "changed"
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	got, _ := s.Projects().GetByID(context.Background(), p.ID)
	if got.Name != "P" {
		t.Fatal("project update leaked")
	}
	if n, _ := s.Versions().MaxVersionNumber(context.Background(), p.ID); n != 0 {
		t.Fatal("version leaked")
	}
}

func TestTxSeesOwnWrites(t *testing.T) {
	s := NewStore()
	p := seedProject(t, s)
	committed := newVersion(p.ID, 1, domain.VersionApproved)
	if err := s.Versions().Create(context.Background(), committed); err != nil {
		t.Fatal(err)
	}
	err := s.WithProjectLock(context.Background(), p.ID, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Versions().Create(ctx, newVersion(p.ID, 2, domain.VersionPending)); err != nil {
			return err
		}
		if err := tx.Versions().Create(ctx, newVersion(p.ID, 2, domain.VersionPending)); !errors.Is(err, domerrors.ErrVersionNumberTaken) {
			t.Errorf("duplicate in tx = %v", err)
		}
		if err := tx.Versions().Delete(ctx, p.ID, committed.ID); err != nil {
			return err
		}
		n, _ := tx.Versions().MaxVersionNumber(ctx, p.ID)
		if n != 2 {
			t.Errorf("max in tx = %d", n)
		}
		approved, _ := tx.Versions().ListByProject(ctx, p.ID, ports.VersionFilter{Status: domain.VersionApproved})
		if len(approved) != 0 {
			t.Errorf("deleted version still listed")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Versions().GetByID(context.Background(), p.ID, committed.ID); v != nil {
		t.Fatal("staged delete not committed")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := NewStore()
	p := seedProject(t, s)
	ctx := context.Background()
	_ = s.Versions().Create(ctx, newVersion(p.ID, 1, domain.VersionApproved))
	_ = s.Activities().Append(ctx, &domain.Activity{ID: uuid.New(), ProjectID: p.ID})
	if err := s.Projects().Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Versions().MaxVersionNumber(ctx, p.ID); n != 0 {
		t.Fatal("versions kept")
	}
	if n, _ := s.Activities().CountByProject(ctx, p.ID); n != 0 {
		t.Fatal("activity kept")
	}
	if err := s.Projects().Delete(ctx, p.ID); !errors.Is(err, domerrors.ErrProjectNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestLockHonoursContext(t *testing.T) {
	s := NewStore()
	p := seedProject(t, s)
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = s.WithProjectLock(context.Background(), p.ID, func(ctx context.Context, tx ports.Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithProjectLock(ctx, p.ID, func(ctx context.Context, tx ports.Tx) error { return nil })
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s := NewStore()
	p := seedProject(t, s)
	got, _ := s.Projects().GetByID(context.Background(), p.ID)
	got.AccessibleBy[0].Type = domain.AccessViewer
	again, _ := s.Projects().GetByID(context.Background(), p.ID)
	if again.AccessibleBy[0].Type != domain.AccessCreator {
		t.Fatal("caller mutation reached the store")
	}
}

func TestUserSearch(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, name := range []string{"Alice", "Bob", "Alicia"} {
		_ = s.Users().Create(ctx, &domain.User{ID: domain.NewUserID(uuid.New()), Name: name, Email: name + "@Example.com"})
	}
	got, _ := s.Users().Search(ctx, "ali", 10)
	if len(got) != 2 || got[0].Name != "Alice" {
		t.Fatalf("search = %+v", got)
	}
	if u, _ := s.Users().GetByEmail(ctx, "BOB@example.com"); u == nil {
		t.Fatal("email lookup is case sensitive")
	}
	if err := s.Users().Create(ctx, &domain.User{ID: domain.NewUserID(uuid.New()), Email: "bob@example.com"}); !errors.Is(err, domerrors.ErrUserExists) {
		t.Fatalf("duplicate email = %v", err)
	}
}

func TestUserUpdateMovesEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := &domain.User{ID: domain.NewUserID(uuid.New()), Name: "A", Email: "a@example.com"}
	b := &domain.User{ID: domain.NewUserID(uuid.New()), Name: "B", Email: "b@example.com"}
	_ = s.Users().Create(ctx, a)
	_ = s.Users().Create(ctx, b)

	a.Email = "B@example.com"
	if err := s.Users().Update(ctx, a); !errors.Is(err, domerrors.ErrUserExists) {
		t.Fatalf("taken email = %v", err)
	}
	a.Email = "A2@example.com"
	if err := s.Users().Update(ctx, a); err != nil {
		t.Fatal(err)
	}
	if u, _ := s.Users().GetByEmail(ctx, "a@example.com"); u != nil {
		t.Fatal("old email kept")
	}
	if u, _ := s.Users().GetByEmail(ctx, "a2@example.com"); u == nil || u.ID != a.ID {
		t.Fatal("new email missing")
	}
	ghost := &domain.User{ID: domain.NewUserID(uuid.New()), Email: "g@example.com"}
	if err := s.Users().Update(ctx, ghost); !errors.Is(err, domerrors.ErrUserNotFound) {
		t.Fatalf("missing user = %v", err)
	}
}
