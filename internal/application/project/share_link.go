package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// DefaultShareDays is the share link lifetime when the caller gives none.
const DefaultShareDays = 7

type GenerateShareLinkInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
	Days      int
}

type GenerateShareLinkResult struct {
	ShareURL  string
	Token     string
	ExpiresIn string
	ExpiresAt time.Time
}

// GenerateShareLink signs a link any viewer of the project may hand out.
type GenerateShareLink struct {
	projects ports.ProjectRepository
	issuer   ports.ShareTokenIssuer
	baseURL  string
	now      func() time.Time
}

func NewGenerateShareLink(projects ports.ProjectRepository, issuer ports.ShareTokenIssuer, baseURL string) *GenerateShareLink {
	return &GenerateShareLink{
		projects: projects,
		issuer:   issuer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

func (uc *GenerateShareLink) Execute(ctx context.Context, input GenerateShareLinkInput) (*GenerateShareLinkResult, error) {
	if _, err := Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelView); err != nil {
		return nil, err
	}
	days := input.Days
	if days <= 0 {
		days = DefaultShareDays
	}
	ttl := time.Duration(days) * 24 * time.Hour
	token, err := uc.issuer.IssueShareToken(input.ProjectID.String(), input.Actor.String(), ttl)
	if err != nil {
		return nil, err
	}
	return &GenerateShareLinkResult{
		ShareURL:  uc.baseURL + "/shared/project/" + token,
		Token:     token,
		ExpiresIn: fmt.Sprintf("%d days", days),
		ExpiresAt: uc.now().Add(ttl),
	}, nil
}

type ResolveShareLinkInput struct {
	Token string
}

type ResolveShareLinkResult struct {
	Project  *domain.Project
	SharedBy domain.UserID
}

// ResolveShareLink validates a share token and returns the project it names.
// The sharer must still be able to view the project.
type ResolveShareLink struct {
	projects ports.ProjectRepository
	issuer   ports.ShareTokenIssuer
}

func NewResolveShareLink(projects ports.ProjectRepository, issuer ports.ShareTokenIssuer) *ResolveShareLink {
	return &ResolveShareLink{projects: projects, issuer: issuer}
}

func (uc *ResolveShareLink) Execute(ctx context.Context, input ResolveShareLinkInput) (*ResolveShareLinkResult, error) {
	claims, err := uc.issuer.ValidateShareToken(input.Token)
	if err != nil {
		return nil, domerrors.ErrInvalidShareToken
	}
	projectID, err := domain.ParseProjectID(claims.ProjectID)
	if err != nil {
		return nil, domerrors.ErrInvalidShareToken
	}
	sharedBy, err := domain.ParseUserID(claims.SharedBy)
	if err != nil {
		return nil, domerrors.ErrInvalidShareToken
	}
	p, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	if !p.CanAccess(sharedBy, domain.LevelView) {
		return nil, domerrors.ErrInvalidShareToken
	}
	return &ResolveShareLinkResult{Project: p, SharedBy: sharedBy}, nil
}
