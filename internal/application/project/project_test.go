package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/apptest"
	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

func createProject(t *testing.T, env *apptest.Env, creator domain.UserID) *domain.Project {
	t.Helper()
	res, err := project.NewCreateProject(env.Store.Projects(), env.Effects).Execute(context.Background(), project.CreateProjectInput{
		Name:    "Report",
		Creator: creator,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return res.Project
}

func addCollaborator(t *testing.T, env *apptest.Env, p *domain.Project, actor domain.UserID, email string, at domain.AccessType) {
	t.Helper()
	uc := project.NewAddCollaborator(env.Store, env.Store.Users(), env.Effects)
	if _, err := uc.Execute(context.Background(), project.AddCollaboratorInput{
		ProjectID: p.ID, Actor: actor, Email: email, AccessType: at,
	}); err != nil {
		t.Fatalf("add collaborator %s: %v", email, err)
	}
}

func TestCreateProjectRequiresName(t *testing.T) {
	env := apptest.NewEnv(t)
	a := env.User(t, "alice")
	_, err := project.NewCreateProject(env.Store.Projects(), env.Effects).Execute(context.Background(), project.CreateProjectInput{
		Name:    "   ",
		Creator: a.ID,
	})
	if !errors.Is(err, domerrors.ErrNameRequired) {
		t.Fatalf("err = %v, want ErrNameRequired", err)
	}
}

func TestCreateProjectKeepsSingleCreatorEntry(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	res, err := project.NewCreateProject(env.Store.Projects(), env.Effects).Execute(context.Background(), project.CreateProjectInput{
		Name:    "Report",
		Creator: a.ID,
		InitialAccess: []domain.AccessEntry{
			{UserID: a.ID, Type: domain.AccessViewer},
			{UserID: b.ID, Type: domain.AccessEditor},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := env.Project(t, res.Project.ID)
	creators := 0
	for _, e := range p.AccessibleBy {
		if e.Type == domain.AccessCreator {
			creators++
			if e.UserID != a.ID {
				t.Fatalf("creator entry for %s", e.UserID)
			}
		}
	}
	if creators != 1 {
		t.Fatalf("creator entries = %d", creators)
	}
	if !p.CanAccess(b.ID, domain.LevelEdit) {
		t.Fatal("initial editor grant lost")
	}
	if got := env.Activity.Actions(); len(got) != 1 || got[0] != domain.ActionProjectCreated {
		t.Fatalf("activity = %v", got)
	}
}

func TestListProjectsPartitionsWithoutAutoGrant(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b, c := env.User(t, "alice"), env.User(t, "bob"), env.User(t, "carol")
	p1 := createProject(t, env, a.ID)
	p2 := createProject(t, env, b.ID)
	addCollaborator(t, env, p2, b.ID, a.Email, domain.AccessViewer)

	list := project.NewListProjects(env.Store.Projects())
	res, err := list.Execute(context.Background(), project.ListProjectsInput{UserID: a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.All) != 2 || len(res.Owned) != 1 || len(res.Viewable) != 1 || len(res.Editable) != 0 {
		t.Fatalf("partitions all=%d owned=%d editable=%d viewable=%d", len(res.All), len(res.Owned), len(res.Editable), len(res.Viewable))
	}
	if res.Owned[0].Project.ID != p1.ID || res.Owned[0].Access != domain.AccessCreator {
		t.Fatalf("owned = %+v", res.Owned[0])
	}

	res, err = list.Execute(context.Background(), project.ListProjectsInput{UserID: c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.All) != 0 {
		t.Fatalf("stranger sees %d projects", len(res.All))
	}
	if p := env.Project(t, p1.ID); p.CanAccess(c.ID, domain.LevelView) {
		t.Fatal("listing must not grant access")
	}
}

func TestGetAndUpdateProjectRequireAccess(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	ctx := context.Background()

	_, err := project.NewGetProject(env.Store.Projects()).Execute(ctx, project.GetProjectInput{ProjectID: p.ID, UserID: b.ID})
	if !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Fatalf("stranger get = %v", err)
	}

	addCollaborator(t, env, p, a.ID, b.Email, domain.AccessViewer)
	name := "Renamed"
	update := project.NewUpdateProject(env.Store, env.Effects)
	_, err = update.Execute(ctx, project.UpdateProjectInput{ProjectID: p.ID, Actor: b.ID, Name: &name})
	if !errors.Is(err, domerrors.ErrEditAccessRequired) {
		t.Fatalf("viewer update = %v", err)
	}

	empty := " "
	_, err = update.Execute(ctx, project.UpdateProjectInput{ProjectID: p.ID, Actor: a.ID, Name: &empty})
	if !errors.Is(err, domerrors.ErrNameRequired) {
		t.Fatalf("empty name = %v", err)
	}

	res, err := update.Execute(ctx, project.UpdateProjectInput{ProjectID: p.ID, Actor: a.ID, Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if res.Project.Name != "Renamed" || env.Project(t, p.ID).Name != "Renamed" {
		t.Fatal("name not updated")
	}
}

func TestAddCollaborator(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	ctx := context.Background()
	uc := project.NewAddCollaborator(env.Store, env.Store.Users(), env.Effects)

	_, err := uc.Execute(ctx, project.AddCollaboratorInput{ProjectID: p.ID, Actor: a.ID, Email: "nobody@example.com", AccessType: domain.AccessViewer})
	if !errors.Is(err, domerrors.ErrUserNotFound) {
		t.Fatalf("unknown email = %v", err)
	}
	_, err = uc.Execute(ctx, project.AddCollaboratorInput{ProjectID: p.ID, Actor: a.ID, Email: b.Email, AccessType: domain.AccessCreator})
	if !errors.Is(err, domerrors.ErrInvalidAccessType) {
		t.Fatalf("creator grant = %v", err)
	}
	_, err = uc.Execute(ctx, project.AddCollaboratorInput{ProjectID: p.ID, Actor: a.ID, Email: a.Email, AccessType: domain.AccessViewer})
	if !errors.Is(err, domerrors.ErrCannotChangeCreator) {
		t.Fatalf("demote creator = %v", err)
	}

	addCollaborator(t, env, p, a.ID, "BOB@example.com", domain.AccessViewer)
	addCollaborator(t, env, p, a.ID, b.Email, domain.AccessEditor)
	got := env.Project(t, p.ID)
	if len(got.AccessibleBy) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.AccessibleBy))
	}
	if !got.CanAccess(b.ID, domain.LevelEdit) {
		t.Fatal("upsert did not raise role")
	}
	if n := len(env.Notifier.To(b.ID)); n != 2 {
		t.Fatalf("notifications to bob = %d", n)
	}
	if len(env.Notifier.To(a.ID)) != 0 {
		t.Fatal("actor must not notify themselves")
	}

	_, err = uc.Execute(ctx, project.AddCollaboratorInput{ProjectID: p.ID, Actor: b.ID, Email: a.Email, AccessType: domain.AccessViewer})
	if !errors.Is(err, domerrors.ErrAdminAccessRequired) {
		t.Fatalf("editor adding = %v", err)
	}
}

// stalledDirectory never answers an email lookup until the caller gives up.
type stalledDirectory struct {
	ports.UserRepository
}

func (stalledDirectory) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAddCollaboratorBoundsDirectoryLookup(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	fx := effects.NewRunner(env.Notifier, env.Activity, env.Storage, zerolog.Nop(), effects.WithTimeout(20*time.Millisecond))
	uc := project.NewAddCollaborator(env.Store, stalledDirectory{env.Store.Users()}, fx)

	done := make(chan error, 1)
	go func() {
		_, err := uc.Execute(context.Background(), project.AddCollaboratorInput{
			ProjectID: p.ID, Actor: a.ID, Email: b.Email, AccessType: domain.AccessViewer,
		})
		done <- err
	}()
	select {
	case err := <-done:
		if domerrors.KindOf(err) != domerrors.KindUpstream {
			t.Fatalf("err = %v, want upstream", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lookup was not bounded")
	}
	if env.Project(t, p.ID).CanAccess(b.ID, domain.LevelView) {
		t.Fatal("access granted after failed lookup")
	}
}

func TestRemoveCollaborator(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	addCollaborator(t, env, p, a.ID, b.Email, domain.AccessEditor)
	ctx := context.Background()
	uc := project.NewRemoveCollaborator(env.Store, env.Effects)

	for _, actor := range []domain.UserID{a.ID, b.ID} {
		_, err := uc.Execute(ctx, project.RemoveCollaboratorInput{ProjectID: p.ID, Actor: actor, UserID: a.ID})
		if domerrors.KindOf(err) != domerrors.KindForbidden {
			t.Fatalf("removing creator as %s: %v", actor, err)
		}
	}
	if !env.Project(t, p.ID).CanAccess(a.ID, domain.LevelAdmin) {
		t.Fatal("creator lost access")
	}

	if _, err := uc.Execute(ctx, project.RemoveCollaboratorInput{ProjectID: p.ID, Actor: a.ID, UserID: b.ID}); err != nil {
		t.Fatal(err)
	}
	if env.Project(t, p.ID).CanAccess(b.ID, domain.LevelView) {
		t.Fatal("bob still has access")
	}
	_, err := uc.Execute(ctx, project.RemoveCollaboratorInput{ProjectID: p.ID, Actor: a.ID, UserID: b.ID})
	if !errors.Is(err, domerrors.ErrCollaboratorNotFound) {
		t.Fatalf("second remove = %v", err)
	}
	if env.Activity.Last(domain.ActionCollaboratorRemoved) == nil {
		t.Fatal("removal not logged")
	}
}

func TestRequestAccess(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b, c := env.User(t, "alice"), env.User(t, "bob"), env.User(t, "carol")
	p := createProject(t, env, a.ID)
	addCollaborator(t, env, p, a.ID, c.Email, domain.AccessEditor)
	ctx := context.Background()
	uc := project.NewRequestAccess(env.Store, env.Store.Users(), env.Effects)

	res, err := uc.Execute(ctx, project.RequestAccessInput{ProjectID: p.ID, Requester: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Request.Message != domain.DefaultRequestMessage || res.Request.RequestType != domain.AccessEditor {
		t.Fatalf("request = %+v", res.Request)
	}
	_, err = uc.Execute(ctx, project.RequestAccessInput{ProjectID: p.ID, Requester: b.ID, Message: "again"})
	if !errors.Is(err, domerrors.ErrDuplicatePendingRequest) {
		t.Fatalf("duplicate = %v", err)
	}
	for _, u := range []domain.UserID{a.ID, c.ID} {
		_, err = uc.Execute(ctx, project.RequestAccessInput{ProjectID: p.ID, Requester: u})
		if domerrors.KindOf(err) != domerrors.KindConflict {
			t.Fatalf("editor/creator request = %v", err)
		}
	}
	_, err = uc.Execute(ctx, project.RequestAccessInput{ProjectID: p.ID, Requester: b.ID, RequestType: domain.AccessViewer})
	if !errors.Is(err, domerrors.ErrInvalidRequestType) {
		t.Fatalf("viewer request type = %v", err)
	}

	if n := len(env.Project(t, p.ID).PendingRequests()); n != 1 {
		t.Fatalf("pending = %d", n)
	}
	sent := env.Notifier.To(a.ID)
	if len(sent) != 1 || sent[0].Type != domain.NotifyAccessRequested {
		t.Fatalf("creator notifications = %+v", sent)
	}
	if want := "bob has requested access to your project Report"; sent[0].Message != want {
		t.Fatalf("message = %q", sent[0].Message)
	}
}

func TestHandleAccessRequest(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	ctx := context.Background()

	req, err := project.NewRequestAccess(env.Store, env.Store.Users(), env.Effects).Execute(ctx, project.RequestAccessInput{
		ProjectID: p.ID, Requester: b.ID, Message: "need to edit",
	})
	if err != nil {
		t.Fatal(err)
	}
	handle := project.NewHandleAccessRequest(env.Store, env.Effects)

	_, err = handle.Execute(ctx, project.HandleAccessRequestInput{ProjectID: p.ID, Actor: b.ID, RequestID: req.Request.ID, Decision: domain.RequestApproved})
	if !errors.Is(err, domerrors.ErrAdminAccessRequired) {
		t.Fatalf("requester deciding = %v", err)
	}
	_, err = handle.Execute(ctx, project.HandleAccessRequestInput{ProjectID: p.ID, Actor: a.ID, RequestID: req.Request.ID, Decision: "maybe"})
	if !errors.Is(err, domerrors.ErrInvalidDecision) {
		t.Fatalf("bad decision = %v", err)
	}

	res, err := handle.Execute(ctx, project.HandleAccessRequestInput{
		ProjectID: p.ID, Actor: a.ID, RequestID: req.Request.ID,
		Decision: domain.RequestApproved, GrantedType: domain.AccessViewer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Request.Status != domain.RequestApproved || res.Request.DecidedBy == nil || *res.Request.DecidedBy != a.ID {
		t.Fatalf("decided request = %+v", res.Request)
	}
	got := env.Project(t, p.ID)
	if !got.CanAccess(b.ID, domain.LevelView) || got.CanAccess(b.ID, domain.LevelEdit) {
		t.Fatal("granted type override not applied")
	}
	if len(got.AccessRequests) != 1 {
		t.Fatal("requests must be kept as audit trail")
	}

	_, err = handle.Execute(ctx, project.HandleAccessRequestInput{ProjectID: p.ID, Actor: a.ID, RequestID: req.Request.ID, Decision: domain.RequestRejected})
	if !errors.Is(err, domerrors.ErrRequestDecided) {
		t.Fatalf("re-decide = %v", err)
	}
	if act := env.Activity.Last(domain.ActionAccessGranted); act == nil || act.Metadata["accessType"] != "viewer" {
		t.Fatalf("grant activity = %+v", act)
	}
}

func TestHandleAccessRequestReject(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	ctx := context.Background()
	req, err := project.NewRequestAccess(env.Store, env.Store.Users(), env.Effects).Execute(ctx, project.RequestAccessInput{ProjectID: p.ID, Requester: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	env.Notifier.Fail = true
	_, err = project.NewHandleAccessRequest(env.Store, env.Effects).Execute(ctx, project.HandleAccessRequestInput{
		ProjectID: p.ID, Actor: a.ID, RequestID: req.Request.ID, Decision: domain.RequestRejected,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := env.Project(t, p.ID)
	if got.CanAccess(b.ID, domain.LevelView) {
		t.Fatal("rejection granted access")
	}
	if len(got.PendingRequests()) != 0 {
		t.Fatal("request still pending")
	}
	if env.Activity.Last(domain.ActionAccessDenied) == nil {
		t.Fatal("denial not logged")
	}

	list, err := project.NewListAccessRequests(env.Store.Projects()).Execute(ctx, project.ListAccessRequestsInput{ProjectID: p.ID, Actor: a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Requests) != 0 {
		t.Fatalf("pending list = %d", len(list.Requests))
	}
}

type shareIssuer struct {
	tokens map[string]ports.ShareClaims
}

func (s *shareIssuer) IssueShareToken(projectID, sharedBy string, ttl time.Duration) (string, error) {
	tok := "tok-" + projectID
	s.tokens[tok] = ports.ShareClaims{ProjectID: projectID, SharedBy: sharedBy, ExpiresAt: time.Now().Add(ttl)}
	return tok, nil
}

func (s *shareIssuer) ValidateShareToken(token string) (*ports.ShareClaims, error) {
	c, ok := s.tokens[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &c, nil
}

func TestShareLink(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	issuer := &shareIssuer{tokens: map[string]ports.ShareClaims{}}
	ctx := context.Background()

	gen := project.NewGenerateShareLink(env.Store.Projects(), issuer, "https://nexus.example/")
	_, err := gen.Execute(ctx, project.GenerateShareLinkInput{ProjectID: p.ID, Actor: b.ID})
	if !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Fatalf("stranger share = %v", err)
	}
	link, err := gen.Execute(ctx, project.GenerateShareLinkInput{ProjectID: p.ID, Actor: a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if link.ShareURL != "https://nexus.example/shared/project/"+link.Token || link.ExpiresIn != "7 days" {
		t.Fatalf("link = %+v", link)
	}

	resolve := project.NewResolveShareLink(env.Store.Projects(), issuer)
	res, err := resolve.Execute(ctx, project.ResolveShareLinkInput{Token: link.Token})
	if err != nil {
		t.Fatal(err)
	}
	if res.Project.ID != p.ID || res.SharedBy != a.ID {
		t.Fatalf("resolved = %+v", res)
	}
	if _, err := resolve.Execute(ctx, project.ResolveShareLinkInput{Token: "bogus"}); !errors.Is(err, domerrors.ErrInvalidShareToken) {
		t.Fatalf("bogus token = %v", err)
	}
}

func TestDeleteProjectRequiresCreator(t *testing.T) {
	env := apptest.NewEnv(t)
	a, b := env.User(t, "alice"), env.User(t, "bob")
	p := createProject(t, env, a.ID)
	addCollaborator(t, env, p, a.ID, b.Email, domain.AccessEditor)
	ctx := context.Background()
	uc := project.NewDeleteProject(env.Store, env.Effects, zerolog.Nop())

	if _, err := uc.Execute(ctx, project.DeleteProjectInput{ProjectID: p.ID, Actor: b.ID}); !errors.Is(err, domerrors.ErrAdminAccessRequired) {
		t.Fatalf("editor delete = %v", err)
	}
	if _, err := uc.Execute(ctx, project.DeleteProjectInput{ProjectID: p.ID, Actor: a.ID}); err != nil {
		t.Fatal(err)
	}
	if got, _ := env.Store.Projects().GetByID(ctx, p.ID); got != nil {
		t.Fatal("project still stored")
	}
	if _, err := uc.Execute(ctx, project.DeleteProjectInput{ProjectID: p.ID, Actor: a.ID}); !errors.Is(err, domerrors.ErrProjectNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}
