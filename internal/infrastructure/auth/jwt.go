package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/projectnexus/nexus/internal/application/ports"
)

// Token kinds carried in the "typ" claim. A share token never authenticates
// a session and an access token never opens a share link.
const (
	kindAccess = "access"
	kindShare  = "project-share"
)

var errWrongKind = errors.New("token kind mismatch")

// TokenIssuer implements ports.TokenIssuer and ports.ShareTokenIssuer with RS256.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
	now        func() time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Kind   string `json:"typ"`
	UserID string `json:"user_id"`
}

type shareClaims struct {
	jwt.RegisteredClaims
	Kind      string `json:"typ"`
	ProjectID string `json:"project_id"`
	SharedBy  string `json:"shared_by"`
}

func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

func (t *TokenIssuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Audience:  jwt.ClaimStrings{t.audience},
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) IssueAccessToken(userID string, expiresInSeconds int64) (string, error) {
	claims := accessClaims{
		RegisteredClaims: t.registered(userID, time.Duration(expiresInSeconds)*time.Second),
		Kind:             kindAccess,
		UserID:           userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.privateKey)
}

func (t *TokenIssuer) ValidateAccessToken(tokenString string) (string, error) {
	claims := &accessClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return "", err
	}
	if claims.Kind != kindAccess || claims.UserID == "" {
		return "", errWrongKind
	}
	return claims.UserID, nil
}

func (t *TokenIssuer) IssueShareToken(projectID, sharedBy string, ttl time.Duration) (string, error) {
	claims := shareClaims{
		RegisteredClaims: t.registered(sharedBy, ttl),
		Kind:             kindShare,
		ProjectID:        projectID,
		SharedBy:         sharedBy,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.privateKey)
}

func (t *TokenIssuer) ValidateShareToken(tokenString string) (*ports.ShareClaims, error) {
	claims := &shareClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kindShare || claims.ProjectID == "" {
		return nil, errWrongKind
	}
	out := &ports.ShareClaims{ProjectID: claims.ProjectID, SharedBy: claims.SharedBy}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.publicKey, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}

var (
	_ ports.TokenIssuer      = (*TokenIssuer)(nil)
	_ ports.ShareTokenIssuer = (*TokenIssuer)(nil)
)
