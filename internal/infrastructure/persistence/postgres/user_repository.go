package postgres

import (
	"context"
	"strings"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
)

type UserRepository struct {
	q *db.Queries
}

func NewUserRepository(q *db.Queries) *UserRepository {
	return &UserRepository{q: q}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.q.CreateUser(ctx, db.CreateUserParams{
		ID:             user.ID.UUID,
		Email:          strings.ToLower(user.Email),
		Name:           user.Name,
		ProfilePicture: user.ProfilePicture,
		PasswordHash:   user.PasswordHash,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	})
	if isUniqueViolation(err, "") {
		return domerrors.ErrUserExists
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	n, err := r.q.UpdateUser(ctx, db.UpdateUserParams{
		ID:             user.ID.UUID,
		Email:          strings.ToLower(user.Email),
		Name:           user.Name,
		ProfilePicture: user.ProfilePicture,
		PasswordHash:   user.PasswordHash,
		UpdatedAt:      user.UpdatedAt,
	})
	if isUniqueViolation(err, "") {
		return domerrors.ErrUserExists
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return domerrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	u, err := r.q.GetUserByID(ctx, userID.UUID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return dbUserToDomain(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return dbUserToDomain(u), nil
}

func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	rows, err := r.q.SearchUsers(ctx, query, int32(limit))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(rows))
	for _, u := range rows {
		out = append(out, dbUserToDomain(u))
	}
	return out, nil
}

func dbUserToDomain(u db.User) *domain.User {
	return &domain.User{
		ID:             domain.NewUserID(u.ID),
		Email:          u.Email,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		PasswordHash:   u.PasswordHash,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)
