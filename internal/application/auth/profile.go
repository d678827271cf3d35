package auth

import (
	"context"
	"strings"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// UpdateProfileInput changes only the non-nil fields.
type UpdateProfileInput struct {
	UserID         domain.UserID
	Name           *string
	Email          *string
	ProfilePicture *string
}

type UpdateProfileResult struct {
	User *domain.User
}

// UpdateProfile edits the caller's own directory entry.
type UpdateProfile struct {
	users ports.UserRepository
}

func NewUpdateProfile(users ports.UserRepository) *UpdateProfile {
	return &UpdateProfile{users: users}
}

func (uc *UpdateProfile) Execute(ctx context.Context, input UpdateProfileInput) (*UpdateProfileResult, error) {
	if input.Name == nil && input.Email == nil && input.ProfilePicture == nil {
		return nil, domerrors.ErrEmptyProfileUpdate
	}
	user, err := uc.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrUserNotFound
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			user.Name = name
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !emailRegex.MatchString(email) {
			return nil, domerrors.ErrInvalidEmail
		}
		user.Email = email
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*input.ProfilePicture)
	}
	user.UpdatedAt = time.Now()
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return &UpdateProfileResult{User: user}, nil
}

type ChangePasswordInput struct {
	UserID          domain.UserID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword replaces the caller's password after checking the current
// one.
type ChangePassword struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
}

func NewChangePassword(users ports.UserRepository, hasher ports.PasswordHasher) *ChangePassword {
	return &ChangePassword{users: users, hasher: hasher}
}

func (uc *ChangePassword) Execute(ctx context.Context, input ChangePasswordInput) error {
	if len(input.NewPassword) < MinPasswordLength {
		return domerrors.ErrWeakPassword
	}
	user, err := uc.users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return domerrors.ErrUserNotFound
	}
	if !uc.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return domerrors.ErrWrongPassword
	}
	hash, err := uc.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	return uc.users.Update(ctx, user)
}
