package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/activity"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/memory"
)

type recordingEnqueuer struct {
	events []ports.ActivityEvent
	fail   bool
}

func (e *recordingEnqueuer) EnqueueNotification(ctx context.Context, n *domain.Notification) error {
	return nil
}

func (e *recordingEnqueuer) EnqueueWebhook(ctx context.Context, ev ports.ActivityEvent) error {
	if e.fail {
		return errors.New("queue down")
	}
	e.events = append(e.events, ev)
	return nil
}

func seed(t *testing.T, n int) (*memory.Store, *domain.Project, *recordingEnqueuer) {
	t.Helper()
	store := memory.NewStore()
	creator := domain.NewUserID(uuid.New())
	p := domain.NewProject(domain.NewProjectID(uuid.New()), "P", "", creator, nil, time.Now())
	if err := store.Projects().Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	enq := &recordingEnqueuer{}
	rec := activity.NewRecorder(store.Activities(), enq, zerolog.Nop())
	for i := 0; i < n; i++ {
		err := rec.Append(context.Background(), &domain.Activity{
			ID: uuid.New(), ProjectID: p.ID, UserID: creator,
			Action: domain.ActionVersionUploaded, Details: "entry", Metadata: map[string]any{"i": i},
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return store, p, enq
}

func TestRecorderForwardsToWebhook(t *testing.T) {
	_, p, enq := seed(t, 3)
	if len(enq.events) != 3 || enq.events[0].ProjectID != p.ID.String() || enq.events[0].Event != "version_uploaded" {
		t.Fatalf("events = %+v", enq.events)
	}
}

func TestRecorderIgnoresQueueFailure(t *testing.T) {
	store := memory.NewStore()
	rec := activity.NewRecorder(store.Activities(), &recordingEnqueuer{fail: true}, zerolog.Nop())
	pid := domain.NewProjectID(uuid.New())
	if err := rec.Append(context.Background(), &domain.Activity{ID: uuid.New(), ProjectID: pid}); err != nil {
		t.Fatalf("append = %v", err)
	}
	if n, _ := store.Activities().CountByProject(context.Background(), pid); n != 1 {
		t.Fatalf("stored = %d", n)
	}
}

func TestListPages(t *testing.T) {
	store, p, _ := seed(t, 25)
	uc := activity.NewList(store.Projects(), store.Activities())
	res, err := uc.Execute(context.Background(), activity.ListInput{ProjectID: p.ID, Actor: p.Creator, Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 25 || res.Pages != 3 || len(res.Activities) != 5 || res.Limit != activity.DefaultPageSize {
		t.Fatalf("page = %+v", res)
	}
	if got := res.Activities[0].Metadata["i"]; got != 4 {
		t.Fatalf("newest on page 3 = %v, want 4", got)
	}

	_, err = uc.Execute(context.Background(), activity.ListInput{ProjectID: p.ID, Actor: domain.NewUserID(uuid.New())})
	if !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Fatalf("stranger = %v", err)
	}
}

func TestTimelineReturnsMostRecent(t *testing.T) {
	store, p, _ := seed(t, 30)
	items, err := activity.NewTimeline(store.Projects(), store.Activities()).Execute(context.Background(), activity.TimelineInput{ProjectID: p.ID, Actor: p.Creator})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != activity.TimelineSize || items[0].Metadata["i"] != 29 {
		t.Fatalf("timeline len=%d first=%v", len(items), items[0].Metadata["i"])
	}
}
