package version

import (
	"context"
	"sort"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// ApprovedListLimit caps the approved history returned by ListVersions.
const ApprovedListLimit = 15

// DefaultDownloadURLTTL is the lifetime of a signed download URL.
const DefaultDownloadURLTTL = 15 * time.Minute

type ListVersionsInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
}

// ListVersionsResult holds approved versions newest first, and pending
// versions newest first for the creator only.
type ListVersionsResult struct {
	Approved []*domain.Version
	Pending  []*domain.Version
}

type ListVersions struct {
	projects ports.ProjectRepository
	versions ports.VersionRepository
}

func NewListVersions(projects ports.ProjectRepository, versions ports.VersionRepository) *ListVersions {
	return &ListVersions{projects: projects, versions: versions}
}

func (uc *ListVersions) Execute(ctx context.Context, input ListVersionsInput) (*ListVersionsResult, error) {
	p, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelView)
	if err != nil {
		return nil, err
	}
	approved, err := uc.versions.ListByProject(ctx, p.ID, ports.VersionFilter{Status: domain.VersionApproved, Limit: ApprovedListLimit})
	if err != nil {
		return nil, err
	}
	res := &ListVersionsResult{Approved: approved, Pending: []*domain.Version{}}
	if p.IsCreator(input.Actor) {
		pending, err := uc.versions.ListByProject(ctx, p.ID, ports.VersionFilter{Status: domain.VersionPending})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })
		res.Pending = pending
	}
	return res, nil
}

type GetVersionInput struct {
	ProjectID domain.ProjectID
	VersionID domain.VersionID
	Actor     domain.UserID
}

type GetVersionResult struct {
	Version     *domain.Version
	DownloadURL string
	ExpiresIn   time.Duration
}

// GetVersion returns a version with a time-limited download URL. Versions
// that are not approved are only visible to the creator and the uploader.
type GetVersion struct {
	projects ports.ProjectRepository
	versions ports.VersionRepository
	storage  ports.ObjectStorage
	ttl      time.Duration
}

func NewGetVersion(projects ports.ProjectRepository, versions ports.VersionRepository, storage ports.ObjectStorage, ttl time.Duration) *GetVersion {
	if ttl <= 0 {
		ttl = DefaultDownloadURLTTL
	}
	return &GetVersion{projects: projects, versions: versions, storage: storage, ttl: ttl}
}

func (uc *GetVersion) Execute(ctx context.Context, input GetVersionInput) (*GetVersionResult, error) {
	p, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelView)
	if err != nil {
		return nil, err
	}
	v, err := uc.versions.GetByID(ctx, p.ID, input.VersionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domerrors.ErrVersionNotFound
	}
	if v.Status != domain.VersionApproved && !p.IsCreator(input.Actor) && v.UploadedBy != input.Actor {
		return nil, domerrors.ErrVersionNotFound
	}
	res := &GetVersionResult{Version: v, DownloadURL: v.File.URL}
	if v.File.Key != "" {
		url, err := uc.storage.SignedURL(ctx, v.File.Key, ports.SignGet, uc.ttl)
		if err != nil {
			return nil, domerrors.Upstream("could not sign download url", err)
		}
		res.DownloadURL, res.ExpiresIn = url, uc.ttl
	}
	return res, nil
}
