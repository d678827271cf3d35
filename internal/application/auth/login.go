package auth

import (
	"context"
	"strings"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

const DefaultAccessTokenExpiry = 86400 // 24h

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	ExpiresIn   int64
	User        *domain.User
}

type Login struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	issuer    ports.TokenIssuer
	lockout   ports.LoginLockoutStore
	accessExp int64
}

func NewLogin(users ports.UserRepository, hasher ports.PasswordHasher, issuer ports.TokenIssuer, lockout ports.LoginLockoutStore, accessExp int64) *Login {
	if accessExp <= 0 {
		accessExp = DefaultAccessTokenExpiry
	}
	return &Login{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		lockout:   lockout,
		accessExp: accessExp,
	}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if uc.lockout != nil {
		if locked, _ := uc.lockout.IsLocked(ctx, email); locked {
			return nil, domerrors.ErrAccountLocked
		}
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !uc.hasher.Verify(input.Password, user.PasswordHash) {
		if uc.lockout != nil {
			uc.lockout.RecordFailure(ctx, email)
		}
		return nil, domerrors.ErrInvalidCredentials
	}
	if uc.lockout != nil {
		uc.lockout.RecordSuccess(ctx, email)
	}
	accessToken, err := uc.issuer.IssueAccessToken(user.ID.String(), uc.accessExp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   uc.accessExp,
		User:        user,
	}, nil
}
