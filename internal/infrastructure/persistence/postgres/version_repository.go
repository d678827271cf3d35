package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
)

const versionNumberConstraint = "versions_project_id_version_number_key"

type VersionRepository struct {
	q *db.Queries
}

func NewVersionRepository(q *db.Queries) *VersionRepository {
	return &VersionRepository{q: q}
}

func (r *VersionRepository) Create(ctx context.Context, version *domain.Version) error {
	err := r.q.InsertVersion(ctx, domainVersionToDB(version))
	if isUniqueViolation(err, versionNumberConstraint) {
		return domerrors.ErrVersionNumberTaken
	}
	return err
}

func (r *VersionRepository) GetByID(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) (*domain.Version, error) {
	v, err := r.q.GetVersion(ctx, projectID.UUID, versionID.UUID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return dbVersionToDomain(v), nil
}

func (r *VersionRepository) Update(ctx context.Context, version *domain.Version) error {
	n, err := r.q.UpdateVersion(ctx, domainVersionToDB(version))
	if err != nil {
		return err
	}
	if n == 0 {
		return domerrors.ErrVersionNotFound
	}
	return nil
}

func (r *VersionRepository) Delete(ctx context.Context, projectID domain.ProjectID, versionID domain.VersionID) error {
	n, err := r.q.DeleteVersion(ctx, projectID.UUID, versionID.UUID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domerrors.ErrVersionNotFound
	}
	return nil
}

func (r *VersionRepository) ListByProject(ctx context.Context, projectID domain.ProjectID, filter ports.VersionFilter) ([]*domain.Version, error) {
	rows, err := r.q.ListVersions(ctx, db.ListVersionsParams{
		ProjectID:   projectID.UUID,
		Status:      string(filter.Status),
		AboveNumber: int32(filter.AboveNumber),
		Limit:       int32(filter.Limit),
	})
	if err != nil {
		return nil, err
	}
	return dbVersionsToDomain(rows), nil
}

func (r *VersionRepository) MaxVersionNumber(ctx context.Context, projectID domain.ProjectID) (int, error) {
	n, err := r.q.MaxVersionNumber(ctx, projectID.UUID)
	return int(n), err
}

func (r *VersionRepository) DeleteByProject(ctx context.Context, projectID domain.ProjectID) ([]*domain.Version, error) {
	rows, err := r.q.DeleteVersionsByProject(ctx, projectID.UUID)
	if err != nil {
		return nil, err
	}
	return dbVersionsToDomain(rows), nil
}

func domainVersionToDB(v *domain.Version) db.Version {
	var approvedBy *uuid.UUID
	if v.ApprovedBy != nil {
		approvedBy = &v.ApprovedBy.UUID
	}
	return db.Version{
		ID:            v.ID.UUID,
		ProjectID:     v.ProjectID.UUID,
		VersionNumber: int32(v.VersionNumber),
		FileKey:       v.File.Key,
		FileUrl:       v.File.URL,
		FileName:      v.File.Name,
		FileSize:      v.File.Size,
		ContentType:   v.File.ContentType,
		UploadedBy:    v.UploadedBy.UUID,
		Status:        string(v.Status),
		Notes:         v.Notes,
		ApprovedBy:    nullUUID(approvedBy),
		ApprovedAt:    nullTime(v.ApprovedAt),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func dbVersionToDomain(v db.Version) *domain.Version {
	out := &domain.Version{
		ID:            domain.NewVersionID(v.ID),
		ProjectID:     domain.NewProjectID(v.ProjectID),
		VersionNumber: int(v.VersionNumber),
		File: domain.FileRef{
			Key:         v.FileKey,
			URL:         v.FileUrl,
			Name:        v.FileName,
			Size:        v.FileSize,
			ContentType: v.ContentType,
		},
		UploadedBy: domain.NewUserID(v.UploadedBy),
		Status:     domain.VersionStatus(v.Status),
		Notes:      v.Notes,
		ApprovedAt: fromNullTime(v.ApprovedAt),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
	if id := fromNullUUID(v.ApprovedBy); id != nil {
		u := domain.NewUserID(*id)
		out.ApprovedBy = &u
	}
	return out
}

func dbVersionsToDomain(rows []db.Version) []*domain.Version {
	out := make([]*domain.Version, 0, len(rows))
	for _, v := range rows {
		out = append(out, dbVersionToDomain(v))
	}
	return out
}

var _ ports.VersionRepository = (*VersionRepository)(nil)
