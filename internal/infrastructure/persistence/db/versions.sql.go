package db

import (
	"context"

	"github.com/google/uuid"
)

const versionColumns = `id, project_id, version_number, file_key, file_url, file_name, file_size, content_type,
uploaded_by, status, notes, approved_by, approved_at, created_at, updated_at`

const insertVersion = `INSERT INTO versions (` + versionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func (q *Queries) InsertVersion(ctx context.Context, arg Version) error {
	_, err := q.db.Exec(ctx, insertVersion, arg.ID, arg.ProjectID, arg.VersionNumber, arg.FileKey, arg.FileUrl,
		arg.FileName, arg.FileSize, arg.ContentType, arg.UploadedBy, arg.Status, arg.Notes,
		arg.ApprovedBy, arg.ApprovedAt, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const updateVersion = `UPDATE versions
SET status = $3, notes = $4, approved_by = $5, approved_at = $6, updated_at = $7
WHERE project_id = $1 AND id = $2`

func (q *Queries) UpdateVersion(ctx context.Context, arg Version) (int64, error) {
	tag, err := q.db.Exec(ctx, updateVersion, arg.ProjectID, arg.ID, arg.Status, arg.Notes,
		arg.ApprovedBy, arg.ApprovedAt, arg.UpdatedAt)
	return tag.RowsAffected(), err
}

const deleteVersion = `DELETE FROM versions WHERE project_id = $1 AND id = $2`

func (q *Queries) DeleteVersion(ctx context.Context, projectID, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteVersion, projectID, id)
	return tag.RowsAffected(), err
}

const getVersion = `SELECT ` + versionColumns + ` FROM versions WHERE project_id = $1 AND id = $2`

func (q *Queries) GetVersion(ctx context.Context, projectID, id uuid.UUID) (Version, error) {
	return scanVersion(q.db.QueryRow(ctx, getVersion, projectID, id))
}

// An empty status, a zero above and a zero limit each disable their filter.
const listVersions = `SELECT ` + versionColumns + ` FROM versions
WHERE project_id = $1
  AND ($2 = '' OR status = $2)
  AND version_number > $3
ORDER BY version_number DESC
LIMIT NULLIF($4, 0)`

type ListVersionsParams struct {
	ProjectID   uuid.UUID
	Status      string
	AboveNumber int32
	Limit       int32
}

func (q *Queries) ListVersions(ctx context.Context, arg ListVersionsParams) ([]Version, error) {
	return q.queryVersions(ctx, listVersions, arg.ProjectID, arg.Status, arg.AboveNumber, arg.Limit)
}

const maxVersionNumber = `SELECT COALESCE(MAX(version_number), 0)::int FROM versions WHERE project_id = $1`

func (q *Queries) MaxVersionNumber(ctx context.Context, projectID uuid.UUID) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, maxVersionNumber, projectID).Scan(&n)
	return n, err
}

const deleteVersionsByProject = `DELETE FROM versions WHERE project_id = $1 RETURNING ` + versionColumns

func (q *Queries) DeleteVersionsByProject(ctx context.Context, projectID uuid.UUID) ([]Version, error) {
	return q.queryVersions(ctx, deleteVersionsByProject, projectID)
}

func (q *Queries) queryVersions(ctx context.Context, sql string, args ...any) ([]Version, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Version
	for rows.Next() {
		i, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func scanVersion(row scanner) (Version, error) {
	var i Version
	err := row.Scan(&i.ID, &i.ProjectID, &i.VersionNumber, &i.FileKey, &i.FileUrl, &i.FileName,
		&i.FileSize, &i.ContentType, &i.UploadedBy, &i.Status, &i.Notes, &i.ApprovedBy,
		&i.ApprovedAt, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
