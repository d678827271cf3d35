package memory

import (
	"context"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// stage buffers writes of one WithProjectLock call. A nil map value marks a
// deletion.
type stage struct {
	s        *Store
	projects map[domain.ProjectID]*domain.Project
	versions map[domain.VersionID]*domain.Version
}

func (st *stage) Projects() ports.ProjectRepository { return stagedProjects{st} }
func (st *stage) Versions() ports.VersionRepository { return stagedVersions{st} }

func (st *stage) project(id domain.ProjectID) *domain.Project {
	if p, ok := st.projects[id]; ok {
		return p.Clone()
	}
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	return st.s.projects[id].Clone()
}

func (st *stage) version(id domain.VersionID) *domain.Version {
	if v, ok := st.versions[id]; ok {
		return v.Clone()
	}
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	return st.s.versions[id].Clone()
}

// projectVersions merges committed and staged versions of projectID.
func (st *stage) projectVersions(projectID domain.ProjectID) []*domain.Version {
	st.s.mu.RLock()
	merged := make(map[domain.VersionID]*domain.Version)
	for id, v := range st.s.versions {
		if v.ProjectID == projectID {
			merged[id] = v
		}
	}
	st.s.mu.RUnlock()
	for id, v := range st.versions {
		switch {
		case v == nil:
			delete(merged, id)
		case v.ProjectID == projectID:
			merged[id] = v
		}
	}
	out := make([]*domain.Version, 0, len(merged))
	for _, v := range merged {
		out = append(out, v.Clone())
	}
	sortVersions(out)
	return out
}

type stagedProjects struct{ st *stage }

func (r stagedProjects) Create(ctx context.Context, project *domain.Project) error {
	r.st.projects[project.ID] = project.Clone()
	return nil
}

func (r stagedProjects) GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error) {
	return r.st.project(projectID), nil
}

func (r stagedProjects) Update(ctx context.Context, project *domain.Project) error {
	if r.st.project(project.ID) == nil {
		return domerrors.ErrProjectNotFound
	}
	r.st.projects[project.ID] = project.Clone()
	return nil
}

func (r stagedProjects) Delete(ctx context.Context, projectID domain.ProjectID) error {
	if r.st.project(projectID) == nil {
		return domerrors.ErrProjectNotFound
	}
	r.st.projects[projectID] = nil
	return nil
}

func (r stagedProjects) ListForUser(ctx context.Context, userID domain.UserID) ([]*domain.Project, error) {
	return r.st.s.Projects().ListForUser(ctx, userID)
}

type stagedVersions struct{ st *stage }

func (r stagedVersions) Create(ctx context.Context, version *domain.Version) error {
	for _, v := range r.st.projectVersions(version.ProjectID) {
		if v.VersionNumber == version.VersionNumber {
			return domerrors.ErrVersionNumberTaken
		}
	}
	r.st.versions[version.ID] = version.Clone()
	return nil
}

func (r stagedVersions) GetByID(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) (*domain.Version, error) {
	v := r.st.version(versionID)
	if v == nil || v.ProjectID != projectID {
		return nil, nil
	}
	return v, nil
}

func (r stagedVersions) Update(ctx context.Context, version *domain.Version) error {
	if cur := r.st.version(version.ID); cur == nil || cur.ProjectID != version.ProjectID {
		return domerrors.ErrVersionNotFound
	}
	r.st.versions[version.ID] = version.Clone()
	return nil
}

func (r stagedVersions) Delete(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) error {
	if cur := r.st.version(versionID); cur == nil || cur.ProjectID != projectID {
		return domerrors.ErrVersionNotFound
	}
	r.st.versions[versionID] = nil
	return nil
}

func (r stagedVersions) ListByProject(ctx context.Context, projectID domain.ProjectID, filter ports.VersionFilter) ([]*domain.Version, error) {
	return filterVersions(r.st.projectVersions(projectID), filter), nil
}

func (r stagedVersions) MaxVersionNumber(ctx context.Context, projectID domain.ProjectID) (int, error) {
	return maxNumber(r.st.projectVersions(projectID)), nil
}

func (r stagedVersions) DeleteByProject(ctx context.Context, projectID domain.ProjectID) ([]*domain.Version, error) {
	all := r.st.projectVersions(projectID)
	for _, v := range all {
		r.st.versions[v.ID] = nil
	}
	return all, nil
}

var _ ports.Tx = (*stage)(nil)
