package project

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// CreateProjectInput names the project and its creator. InitialAccess may
// pre-grant editor or viewer roles.
type CreateProjectInput struct {
	Name          string
	Description   string
	Creator       domain.UserID
	InitialAccess []domain.AccessEntry
}

type CreateProjectResult struct {
	Project *domain.Project
}

// CreateProject creates a project owned by its caller.
type CreateProject struct {
	projects ports.ProjectRepository
	fx       *effects.Runner
}

func NewCreateProject(projects ports.ProjectRepository, fx *effects.Runner) *CreateProject {
	return &CreateProject{projects: projects, fx: fx}
}

func (uc *CreateProject) Execute(ctx context.Context, input CreateProjectInput) (*CreateProjectResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domerrors.ErrNameRequired
	}
	project := domain.NewProject(
		domain.NewProjectID(uuid.New()),
		name,
		strings.TrimSpace(input.Description),
		input.Creator,
		input.InitialAccess,
		uc.fx.Now(),
	)
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	uc.fx.Record(ctx, project.ID, input.Creator, domain.ActionProjectCreated, "Created project "+project.Name, nil)
	return &CreateProjectResult{Project: project}, nil
}
