package memory

import (
	"context"
	"sort"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type ProjectRepository struct {
	s *Store
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.projects[project.ID] = project.Clone()
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.projects[projectID].Clone(), nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[project.ID]; !ok {
		return domerrors.ErrProjectNotFound
	}
	r.s.projects[project.ID] = project.Clone()
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, projectID domain.ProjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[projectID]; !ok {
		return domerrors.ErrProjectNotFound
	}
	r.s.deleteProjectLocked(projectID)
	return nil
}

// ListForUser returns projects where userID holds any access entry, most
// recently updated first.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID domain.UserID) ([]*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Project
	for _, p := range r.s.projects {
		if _, ok := domain.EffectiveAccess(p, userID); ok {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
