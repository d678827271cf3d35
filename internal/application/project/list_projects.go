package project

import (
	"context"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

// Summary is a project annotated with the caller's role on it.
type Summary struct {
	Project *domain.Project
	Access  domain.AccessType
}

type ListProjectsInput struct {
	UserID domain.UserID
}

// ListProjectsResult partitions visible projects by the caller's role.
// All holds every visible project.
type ListProjectsResult struct {
	All      []Summary
	Owned    []Summary
	Editable []Summary
	Viewable []Summary
}

// ListProjects returns only projects the caller was explicitly granted.
type ListProjects struct {
	projects ports.ProjectRepository
}

func NewListProjects(projects ports.ProjectRepository) *ListProjects {
	return &ListProjects{projects: projects}
}

func (uc *ListProjects) Execute(ctx context.Context, input ListProjectsInput) (*ListProjectsResult, error) {
	list, err := uc.projects.ListForUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	res := &ListProjectsResult{
		All:      []Summary{},
		Owned:    []Summary{},
		Editable: []Summary{},
		Viewable: []Summary{},
	}
	for _, p := range list {
		t, ok := domain.EffectiveAccess(p, input.UserID)
		if !ok {
			continue
		}
		s := Summary{Project: p, Access: t}
		res.All = append(res.All, s)
		switch t {
		case domain.AccessCreator:
			res.Owned = append(res.Owned, s)
		case domain.AccessEditor:
			res.Editable = append(res.Editable, s)
		case domain.AccessViewer:
			res.Viewable = append(res.Viewable, s)
		}
	}
	return res, nil
}
