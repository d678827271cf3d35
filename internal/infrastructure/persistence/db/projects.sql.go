package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const projectColumns = `id, name, description, creator_id, current_version_id, version_ids, created_at, updated_at`

const insertProject = `INSERT INTO projects (` + projectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type UpsertProjectParams struct {
	ID               uuid.UUID
	Name             string
	Description      string
	CreatorID        uuid.UUID
	CurrentVersionID pgtype.UUID
	VersionIds       []uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) InsertProject(ctx context.Context, arg UpsertProjectParams) error {
	_, err := q.db.Exec(ctx, insertProject, arg.ID, arg.Name, arg.Description, arg.CreatorID,
		arg.CurrentVersionID, arg.VersionIds, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const updateProject = `UPDATE projects
SET name = $2, description = $3, current_version_id = $4, version_ids = $5, updated_at = $6
WHERE id = $1`

func (q *Queries) UpdateProject(ctx context.Context, arg UpsertProjectParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateProject, arg.ID, arg.Name, arg.Description,
		arg.CurrentVersionID, arg.VersionIds, arg.UpdatedAt)
	return tag.RowsAffected(), err
}

const deleteProject = `DELETE FROM projects WHERE id = $1`

func (q *Queries) DeleteProject(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteProject, id)
	return tag.RowsAffected(), err
}

const getProjectByID = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

func (q *Queries) GetProjectByID(ctx context.Context, id uuid.UUID) (Project, error) {
	return scanProject(q.db.QueryRow(ctx, getProjectByID, id))
}

const lockProject = `SELECT id FROM projects WHERE id = $1 FOR UPDATE`

// LockProject takes the row lock that serializes writers of one project.
func (q *Queries) LockProject(ctx context.Context, id uuid.UUID) error {
	var got uuid.UUID
	return q.db.QueryRow(ctx, lockProject, id).Scan(&got)
}

const listProjectsForUser = `SELECT p.id, p.name, p.description, p.creator_id, p.current_version_id, p.version_ids, p.created_at, p.updated_at
FROM projects p
JOIN project_access a ON a.project_id = p.id
WHERE a.user_id = $1
ORDER BY p.updated_at DESC`

func (q *Queries) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjectsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		i, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func scanProject(row scanner) (Project, error) {
	var i Project
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.CreatorID, &i.CurrentVersionID,
		&i.VersionIds, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteProjectAccess = `DELETE FROM project_access WHERE project_id = $1`

func (q *Queries) DeleteProjectAccess(ctx context.Context, projectID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteProjectAccess, projectID)
	return err
}

const insertProjectAccess = `INSERT INTO project_access (project_id, user_id, access_type, added_at, position)
VALUES ($1, $2, $3, $4, $5)`

func (q *Queries) InsertProjectAccess(ctx context.Context, arg ProjectAccess) error {
	_, err := q.db.Exec(ctx, insertProjectAccess, arg.ProjectID, arg.UserID, arg.AccessType, arg.AddedAt, arg.Position)
	return err
}

const listProjectAccess = `SELECT project_id, user_id, access_type, added_at, position
FROM project_access WHERE project_id = $1 ORDER BY position`

func (q *Queries) ListProjectAccess(ctx context.Context, projectID uuid.UUID) ([]ProjectAccess, error) {
	rows, err := q.db.Query(ctx, listProjectAccess, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectAccess
	for rows.Next() {
		var i ProjectAccess
		if err := rows.Scan(&i.ProjectID, &i.UserID, &i.AccessType, &i.AddedAt, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertAccessRequest = `INSERT INTO access_requests (id, project_id, user_id, request_type, message, requested_at, status, decided_by, decided_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET request_type = EXCLUDED.request_type, message = EXCLUDED.message, status = EXCLUDED.status,
    decided_by = EXCLUDED.decided_by, decided_at = EXCLUDED.decided_at`

func (q *Queries) UpsertAccessRequest(ctx context.Context, arg AccessRequest) error {
	_, err := q.db.Exec(ctx, upsertAccessRequest, arg.ID, arg.ProjectID, arg.UserID, arg.RequestType,
		arg.Message, arg.RequestedAt, arg.Status, arg.DecidedBy, arg.DecidedAt)
	return err
}

const listAccessRequests = `SELECT id, project_id, user_id, request_type, message, requested_at, status, decided_by, decided_at
FROM access_requests WHERE project_id = $1 ORDER BY requested_at, id`

func (q *Queries) ListAccessRequests(ctx context.Context, projectID uuid.UUID) ([]AccessRequest, error) {
	rows, err := q.db.Query(ctx, listAccessRequests, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccessRequest
	for rows.Next() {
		var i AccessRequest
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.UserID, &i.RequestType, &i.Message,
			&i.RequestedAt, &i.Status, &i.DecidedBy, &i.DecidedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
