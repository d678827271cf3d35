package project

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type RequestAccessInput struct {
	ProjectID   domain.ProjectID
	Requester   domain.UserID
	Message     string
	RequestType domain.AccessType
}

type RequestAccessResult struct {
	Request domain.AccessRequest
}

// RequestAccess files a pending request for elevated access. Anyone below
// editor may ask, including users with no access at all.
type RequestAccess struct {
	tx    ports.TxManager
	users ports.UserRepository
	fx    *effects.Runner
}

func NewRequestAccess(tx ports.TxManager, users ports.UserRepository, fx *effects.Runner) *RequestAccess {
	return &RequestAccess{tx: tx, users: users, fx: fx}
}

func (uc *RequestAccess) Execute(ctx context.Context, input RequestAccessInput) (*RequestAccessResult, error) {
	reqType := input.RequestType
	if reqType == "" {
		reqType = domain.AccessEditor
	}
	if reqType != domain.AccessEditor {
		return nil, domerrors.ErrInvalidRequestType
	}
	msg := strings.TrimSpace(input.Message)
	if msg == "" {
		msg = domain.DefaultRequestMessage
	}
	var (
		project *domain.Project
		req     domain.AccessRequest
	)
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := tx.Projects().GetByID(ctx, input.ProjectID)
		if err != nil {
			return err
		}
		if p == nil {
			return domerrors.ErrProjectNotFound
		}
		if p.CanAccess(input.Requester, domain.LevelEdit) {
			return domerrors.ErrAlreadyEditor
		}
		if p.PendingRequestFor(input.Requester) != nil {
			return domerrors.ErrDuplicatePendingRequest
		}
		now := uc.fx.Now()
		req = domain.AccessRequest{
			ID:          uuid.New(),
			UserID:      input.Requester,
			RequestType: reqType,
			Message:     msg,
			RequestedAt: now,
			Status:      domain.RequestPending,
		}
		p.AccessRequests = append(p.AccessRequests, req)
		p.UpdatedAt = now
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.fx.Notify(ctx, input.Requester, effects.AccessRequested(project, uc.requester(ctx, input.Requester)))
	uc.fx.Record(ctx, project.ID, input.Requester, domain.ActionAccessRequested,
		"Requested "+string(reqType)+" access",
		map[string]any{"requestId": req.ID.String(), "requestType": string(reqType)})
	return &RequestAccessResult{Request: req}, nil
}

// requester resolves a display name for the notification. A directory
// failure falls back to a placeholder.
func (uc *RequestAccess) requester(ctx context.Context, id domain.UserID) *domain.User {
	ctx, cancel := uc.fx.Bound(ctx)
	defer cancel()
	u, err := uc.users.GetByID(ctx, id)
	if err != nil || u == nil {
		return &domain.User{ID: id, Name: "A user"}
	}
	return u
}

type ListAccessRequestsInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
}

type ListAccessRequestsResult struct {
	Requests []domain.AccessRequest
}

type ListAccessRequests struct {
	projects ports.ProjectRepository
}

func NewListAccessRequests(projects ports.ProjectRepository) *ListAccessRequests {
	return &ListAccessRequests{projects: projects}
}

func (uc *ListAccessRequests) Execute(ctx context.Context, input ListAccessRequestsInput) (*ListAccessRequestsResult, error) {
	p, err := Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelAdmin)
	if err != nil {
		return nil, err
	}
	return &ListAccessRequestsResult{Requests: p.PendingRequests()}, nil
}

// HandleAccessRequestInput decides a request. GrantedType overrides the
// requested role on approval.
type HandleAccessRequestInput struct {
	ProjectID   domain.ProjectID
	Actor       domain.UserID
	RequestID   uuid.UUID
	Decision    domain.RequestStatus
	GrantedType domain.AccessType
}

type HandleAccessRequestResult struct {
	Request domain.AccessRequest
	Project *domain.Project
}

// HandleAccessRequest decides a pending request exactly once.
type HandleAccessRequest struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewHandleAccessRequest(tx ports.TxManager, fx *effects.Runner) *HandleAccessRequest {
	return &HandleAccessRequest{tx: tx, fx: fx}
}

func (uc *HandleAccessRequest) Execute(ctx context.Context, input HandleAccessRequestInput) (*HandleAccessRequestResult, error) {
	if input.Decision != domain.RequestApproved && input.Decision != domain.RequestRejected {
		return nil, domerrors.ErrInvalidDecision
	}
	if input.GrantedType != "" && !input.GrantedType.Grantable() {
		return nil, domerrors.ErrInvalidAccessType
	}
	var (
		project *domain.Project
		decided domain.AccessRequest
	)
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		req := p.FindRequest(input.RequestID)
		if req == nil {
			return domerrors.ErrRequestNotFound
		}
		if req.Status != domain.RequestPending {
			return domerrors.ErrRequestDecided
		}
		now := uc.fx.Now()
		actor := input.Actor
		req.Status = input.Decision
		req.DecidedBy = &actor
		req.DecidedAt = &now
		if input.Decision == domain.RequestApproved {
			granted := input.GrantedType
			if granted == "" {
				granted = req.RequestType
			}
			if !p.IsCreator(req.UserID) {
				p.UpsertAccess(req.UserID, granted, now)
			}
		}
		p.UpdatedAt = now
		decided = *req
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if decided.Status == domain.RequestApproved {
		granted, _ := domain.EffectiveAccess(project, decided.UserID)
		uc.fx.Notify(ctx, input.Actor, effects.AccessGranted(project, decided.UserID, granted, input.Actor))
		uc.fx.Record(ctx, project.ID, input.Actor, domain.ActionAccessGranted,
			"Granted "+string(granted)+" access",
			map[string]any{"userId": decided.UserID.String(), "accessType": string(granted), "requestId": decided.ID.String()})
	} else {
		uc.fx.Record(ctx, project.ID, input.Actor, domain.ActionAccessDenied,
			"Denied an access request",
			map[string]any{"userId": decided.UserID.String(), "requestId": decided.ID.String()})
	}
	return &HandleAccessRequestResult{Request: decided, Project: project}, nil
}
