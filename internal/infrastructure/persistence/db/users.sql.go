package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createUser = `INSERT INTO users (id, email, name, profile_picture, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type CreateUserParams struct {
	ID             uuid.UUID
	Email          string
	Name           string
	ProfilePicture string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.Exec(ctx, createUser, arg.ID, arg.Email, arg.Name, arg.ProfilePicture, arg.PasswordHash, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const userColumns = `id, email, name, profile_picture, password_hash, created_at, updated_at`

const updateUser = `UPDATE users
SET email = $2, name = $3, profile_picture = $4, password_hash = $5, updated_at = $6
WHERE id = $1`

type UpdateUserParams struct {
	ID             uuid.UUID
	Email          string
	Name           string
	ProfilePicture string
	PasswordHash   string
	UpdatedAt      time.Time
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateUser, arg.ID, arg.Email, arg.Name, arg.ProfilePicture, arg.PasswordHash, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const searchUsers = `SELECT ` + userColumns + ` FROM users
WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
ORDER BY name
LIMIT NULLIF($2, 0)`

func (q *Queries) SearchUsers(ctx context.Context, query string, limit int32) ([]User, error) {
	rows, err := q.db.Query(ctx, searchUsers, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.ProfilePicture, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
