package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
)

// ProjectRepository saves the project row together with its access entries
// and access requests. Bound to a pool it opens its own transaction per
// write; bound to a pgx.Tx it writes through that transaction.
type ProjectRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewProjectRepository(q *db.Queries, pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{q: q, pool: pool}
}

func (r *ProjectRepository) atomic(ctx context.Context, fn func(*db.Queries) error) error {
	if r.pool == nil {
		return fn(r.q)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(db.New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.atomic(ctx, func(q *db.Queries) error {
		if err := q.InsertProject(ctx, projectParams(project)); err != nil {
			return err
		}
		return saveMembership(ctx, q, project)
	})
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.atomic(ctx, func(q *db.Queries) error {
		n, err := q.UpdateProject(ctx, projectParams(project))
		if err != nil {
			return err
		}
		if n == 0 {
			return domerrors.ErrProjectNotFound
		}
		if err := q.DeleteProjectAccess(ctx, project.ID.UUID); err != nil {
			return err
		}
		return saveMembership(ctx, q, project)
	})
}

// Delete removes the project row; versions, access rows, requests and
// activities go with it through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, projectID domain.ProjectID) error {
	n, err := r.q.DeleteProject(ctx, projectID.UUID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domerrors.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID domain.ProjectID) (*domain.Project, error) {
	p, err := r.q.GetProjectByID(ctx, projectID.UUID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.hydrate(ctx, p)
}

func (r *ProjectRepository) ListForUser(ctx context.Context, userID domain.UserID) ([]*domain.Project, error) {
	rows, err := r.q.ListProjectsForUser(ctx, userID.UUID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Project, 0, len(rows))
	for _, row := range rows {
		p, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProjectRepository) hydrate(ctx context.Context, row db.Project) (*domain.Project, error) {
	p := dbProjectToDomain(row)
	access, err := r.q.ListProjectAccess(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range access {
		p.AccessibleBy = append(p.AccessibleBy, domain.AccessEntry{
			UserID:  domain.NewUserID(a.UserID),
			Type:    domain.AccessType(a.AccessType),
			AddedAt: a.AddedAt,
		})
	}
	requests, err := r.q.ListAccessRequests(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	for _, ar := range requests {
		p.AccessRequests = append(p.AccessRequests, dbRequestToDomain(ar))
	}
	return p, nil
}

func saveMembership(ctx context.Context, q *db.Queries, project *domain.Project) error {
	for i, e := range project.AccessibleBy {
		err := q.InsertProjectAccess(ctx, db.ProjectAccess{
			ProjectID:  project.ID.UUID,
			UserID:     e.UserID.UUID,
			AccessType: string(e.Type),
			AddedAt:    e.AddedAt,
			Position:   int32(i),
		})
		if err != nil {
			return err
		}
	}
	for _, ar := range project.AccessRequests {
		var decidedBy *uuid.UUID
		if ar.DecidedBy != nil {
			decidedBy = &ar.DecidedBy.UUID
		}
		err := q.UpsertAccessRequest(ctx, db.AccessRequest{
			ID:          ar.ID,
			ProjectID:   project.ID.UUID,
			UserID:      ar.UserID.UUID,
			RequestType: string(ar.RequestType),
			Message:     ar.Message,
			RequestedAt: ar.RequestedAt,
			Status:      string(ar.Status),
			DecidedBy:   nullUUID(decidedBy),
			DecidedAt:   nullTime(ar.DecidedAt),
		})
		if isUniqueViolation(err, "access_requests_one_pending") {
			return domerrors.ErrDuplicatePendingRequest
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func projectParams(p *domain.Project) db.UpsertProjectParams {
	var current *uuid.UUID
	if p.CurrentVersion != nil {
		current = &p.CurrentVersion.UUID
	}
	ids := make([]uuid.UUID, 0, len(p.Versions))
	for _, v := range p.Versions {
		ids = append(ids, v.UUID)
	}
	return db.UpsertProjectParams{
		ID:               p.ID.UUID,
		Name:             p.Name,
		Description:      p.Description,
		CreatorID:        p.Creator.UUID,
		CurrentVersionID: nullUUID(current),
		VersionIds:       ids,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func dbProjectToDomain(p db.Project) *domain.Project {
	out := &domain.Project{
		ID:          domain.NewProjectID(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Creator:     domain.NewUserID(p.CreatorID),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if id := fromNullUUID(p.CurrentVersionID); id != nil {
		out.SetCurrent(domain.NewVersionID(*id))
	}
	for _, id := range p.VersionIds {
		out.Versions = append(out.Versions, domain.NewVersionID(id))
	}
	return out
}

func dbRequestToDomain(r db.AccessRequest) domain.AccessRequest {
	out := domain.AccessRequest{
		ID:          r.ID,
		UserID:      domain.NewUserID(r.UserID),
		RequestType: domain.AccessType(r.RequestType),
		Message:     r.Message,
		RequestedAt: r.RequestedAt,
		Status:      domain.RequestStatus(r.Status),
		DecidedAt:   fromNullTime(r.DecidedAt),
	}
	if id := fromNullUUID(r.DecidedBy); id != nil {
		u := domain.NewUserID(*id)
		out.DecidedBy = &u
	}
	return out
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
