package project

import (
	"context"
	"strings"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type AddCollaboratorInput struct {
	ProjectID  domain.ProjectID
	Actor      domain.UserID
	Email      string
	AccessType domain.AccessType
}

type AddCollaboratorResult struct {
	Project *domain.Project
	User    *domain.User
}

// AddCollaborator grants or changes a collaborator's role, resolving the
// target through the user directory.
type AddCollaborator struct {
	tx    ports.TxManager
	users ports.UserRepository
	fx    *effects.Runner
}

func NewAddCollaborator(tx ports.TxManager, users ports.UserRepository, fx *effects.Runner) *AddCollaborator {
	return &AddCollaborator{tx: tx, users: users, fx: fx}
}

func (uc *AddCollaborator) Execute(ctx context.Context, input AddCollaboratorInput) (*AddCollaboratorResult, error) {
	if !input.AccessType.Grantable() {
		return nil, domerrors.ErrInvalidAccessType
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	var (
		project *domain.Project
		target  *domain.User
	)
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		lookupCtx, cancel := uc.fx.Bound(ctx)
		target, err = uc.users.GetByEmail(lookupCtx, email)
		cancel()
		if err != nil {
			return domerrors.Upstream("user directory lookup failed", err)
		}
		if target == nil {
			return domerrors.ErrUserNotFound
		}
		if p.IsCreator(target.ID) {
			return domerrors.ErrCannotChangeCreator
		}
		now := uc.fx.Now()
		p.UpsertAccess(target.ID, input.AccessType, now)
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
	uc.fx.Record(ctx, project.ID, input.Actor, domain.ActionCollaboratorAdded,
		"Added "+target.Email+" as "+string(input.AccessType),
		map[string]any{"userId": target.ID.String(), "accessType": string(input.AccessType)})
	uc.fx.Notify(ctx, input.Actor, effects.AccessGranted(project, target.ID, input.AccessType, input.Actor))
	return &AddCollaboratorResult{Project: project, User: target}, nil
}

type RemoveCollaboratorInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
	UserID    domain.UserID
}

type RemoveCollaboratorResult struct {
	Project *domain.Project
}

type RemoveCollaborator struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewRemoveCollaborator(tx ports.TxManager, fx *effects.Runner) *RemoveCollaborator {
	return &RemoveCollaborator{tx: tx, fx: fx}
}

func (uc *RemoveCollaborator) Execute(ctx context.Context, input RemoveCollaboratorInput) (*RemoveCollaboratorResult, error) {
	var project *domain.Project
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		if p.IsCreator(input.UserID) {
			return domerrors.ErrCannotRemoveCreator
		}
		if !p.RemoveAccess(input.UserID) {
			return domerrors.ErrCollaboratorNotFound
		}
		p.UpdatedAt = uc.fx.Now()
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.fx.Record(ctx, project.ID, input.Actor, domain.ActionCollaboratorRemoved,
		"Removed a collaborator", map[string]any{"userId": input.UserID.String()})
	return &RemoveCollaboratorResult{Project: project}, nil
}
