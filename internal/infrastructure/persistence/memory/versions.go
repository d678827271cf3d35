package memory

import (
	"context"
	"sort"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// VersionRepository reads and writes committed versions directly.
type VersionRepository struct {
	s *Store
}

func (r *VersionRepository) Create(ctx context.Context, version *domain.Version) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.versions {
		if v.ProjectID == version.ProjectID && v.VersionNumber == version.VersionNumber {
			return domerrors.ErrVersionNumberTaken
		}
	}
	r.s.versions[version.ID] = version.Clone()
	return nil
}

func (r *VersionRepository) GetByID(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) (*domain.Version, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.versions[versionID]
	if !ok || v.ProjectID != projectID {
		return nil, nil
	}
	return v.Clone(), nil
}

func (r *VersionRepository) Update(ctx context.Context, version *domain.Version) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.versions[version.ID]
	if !ok || cur.ProjectID != version.ProjectID {
		return domerrors.ErrVersionNotFound
	}
	r.s.versions[version.ID] = version.Clone()
	return nil
}

func (r *VersionRepository) Delete(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.versions[versionID]
	if !ok || cur.ProjectID != projectID {
		return domerrors.ErrVersionNotFound
	}
	delete(r.s.versions, versionID)
	return nil
}

func (r *VersionRepository) ListByProject(ctx context.Context, projectID domain.ProjectID, filter ports.VersionFilter) ([]*domain.Version, error) {
	return filterVersions(r.all(projectID), filter), nil
}

func (r *VersionRepository) MaxVersionNumber(ctx context.Context, projectID domain.ProjectID) (int, error) {
	return maxNumber(r.all(projectID)), nil
}

func (r *VersionRepository) DeleteByProject(ctx context.Context, projectID domain.ProjectID) ([]*domain.Version, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Version
	for id, v := range r.s.versions {
		if v.ProjectID == projectID {
			out = append(out, v)
			delete(r.s.versions, id)
		}
	}
	sortVersions(out)
	return out, nil
}

func (r *VersionRepository) all(projectID domain.ProjectID) []*domain.Version {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Version
	for _, v := range r.s.versions {
		if v.ProjectID == projectID {
			out = append(out, v.Clone())
		}
	}
	sortVersions(out)
	return out
}

// sortVersions orders by version number, highest first.
func sortVersions(vs []*domain.Version) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].VersionNumber > vs[j].VersionNumber })
}

func filterVersions(vs []*domain.Version, f ports.VersionFilter) []*domain.Version {
	out := make([]*domain.Version, 0, len(vs))
	for _, v := range vs {
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.AboveNumber > 0 && v.VersionNumber <= f.AboveNumber {
			continue
		}
		out = append(out, v)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func maxNumber(vs []*domain.Version) int {
	n := 0
	for _, v := range vs {
		if v.VersionNumber > n {
			n = v.VersionNumber
		}
	}
	return n
}

var _ ports.VersionRepository = (*VersionRepository)(nil)
