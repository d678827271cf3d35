package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	TimelineSize    = 20
)

// Recorder appends to the activity store and forwards each entry to the
// webhook pipeline. Forwarding failures are logged only.
type Recorder struct {
	repo     ports.ActivityRepository
	enqueuer ports.TaskEnqueuer
	log      zerolog.Logger
}

func NewRecorder(repo ports.ActivityRepository, enqueuer ports.TaskEnqueuer, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, enqueuer: enqueuer, log: log}
}

func (r *Recorder) Append(ctx context.Context, a *domain.Activity) error {
	if err := r.repo.Append(ctx, a); err != nil {
		return err
	}
	if r.enqueuer == nil {
		return nil
	}
	ev := ports.ActivityEvent{
		Event:     string(a.Action),
		ProjectID: a.ProjectID.String(),
		UserID:    a.UserID.String(),
		Details:   a.Details,
		Metadata:  a.Metadata,
		At:        a.CreatedAt,
	}
	if err := r.enqueuer.EnqueueWebhook(ctx, ev); err != nil {
		r.log.Warn().Err(err).Str("event", ev.Event).Msg("activity webhook not queued")
	}
	return nil
}

var _ ports.ActivityLog = (*Recorder)(nil)

type ListInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
	Limit     int
	Page      int
}

type ListResult struct {
	Activities []*domain.Activity
	Page       int
	Limit      int
	Total      int
	Pages      int
}

// List pages through a project's activity, newest first.
type List struct {
	projects ports.ProjectRepository
	repo     ports.ActivityRepository
}

func NewList(projects ports.ProjectRepository, repo ports.ActivityRepository) *List {
	return &List{projects: projects, repo: repo}
}

func (uc *List) Execute(ctx context.Context, input ListInput) (*ListResult, error) {
	if _, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelView); err != nil {
		return nil, err
	}
	limit, page := input.Limit, input.Page
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	items, err := uc.repo.ListByProject(ctx, input.ProjectID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.CountByProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Activity{}
	}
	return &ListResult{
		Activities: items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		Pages:      (total + limit - 1) / limit,
	}, nil
}

type TimelineInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
}

// Timeline returns the most recent entries of a project.
type Timeline struct {
	projects ports.ProjectRepository
	repo     ports.ActivityRepository
}

func NewTimeline(projects ports.ProjectRepository, repo ports.ActivityRepository) *Timeline {
	return &Timeline{projects: projects, repo: repo}
}

func (uc *Timeline) Execute(ctx context.Context, input TimelineInput) ([]*domain.Activity, error) {
	if _, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelView); err != nil {
		return nil, err
	}
	items, err := uc.repo.ListByProject(ctx, input.ProjectID, TimelineSize, 0)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Activity{}
	}
	return items, nil
}
