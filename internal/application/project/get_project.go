package project

import (
	"context"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

type GetProjectInput struct {
	ProjectID domain.ProjectID
	UserID    domain.UserID
}

type GetProjectResult struct {
	Project *domain.Project
	Access  domain.AccessType
}

type GetProject struct {
	projects ports.ProjectRepository
}

func NewGetProject(projects ports.ProjectRepository) *GetProject {
	return &GetProject{projects: projects}
}

func (uc *GetProject) Execute(ctx context.Context, input GetProjectInput) (*GetProjectResult, error) {
	p, err := Load(ctx, uc.projects, input.ProjectID, input.UserID, domain.LevelView)
	if err != nil {
		return nil, err
	}
	t, _ := domain.EffectiveAccess(p, input.UserID)
	return &GetProjectResult{Project: p, Access: t}, nil
}
