package ports

import "time"

// PasswordHasher hashes and verifies passwords (Argon2id).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs and validates access tokens (RS256).
type TokenIssuer interface {
	IssueAccessToken(userID string, expiresInSeconds int64) (string, error)
	ValidateAccessToken(tokenString string) (userID string, err error)
}

// ShareClaims is what a project share link carries.
type ShareClaims struct {
	ProjectID string
	SharedBy  string
	ExpiresAt time.Time
}

// ShareTokenIssuer signs and validates project share links.
type ShareTokenIssuer interface {
	IssueShareToken(projectID, sharedBy string, ttl time.Duration) (string, error)
	ValidateShareToken(tokenString string) (*ShareClaims, error)
}
