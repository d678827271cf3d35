package project

import (
	"context"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// Load fetches a project and checks userID may act on it at level.
func Load(ctx context.Context, projects ports.ProjectRepository, projectID domain.ProjectID, userID domain.UserID, level domain.AccessLevel) (*domain.Project, error) {
	p, err := projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	if err := domain.Authorize(p, userID, level); err != nil {
		return nil, err
	}
	return p, nil
}
