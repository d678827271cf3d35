package project

import (
	"context"
	"strings"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// UpdateProjectInput carries optional fields; nil leaves a field unchanged.
type UpdateProjectInput struct {
	ProjectID   domain.ProjectID
	Actor       domain.UserID
	Name        *string
	Description *string
}

type UpdateProjectResult struct {
	Project *domain.Project
}

type UpdateProject struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewUpdateProject(tx ports.TxManager, fx *effects.Runner) *UpdateProject {
	return &UpdateProject{tx: tx, fx: fx}
}

func (uc *UpdateProject) Execute(ctx context.Context, input UpdateProjectInput) (*UpdateProjectResult, error) {
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domerrors.ErrNameRequired
		}
	}
	var updated *domain.Project
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelEdit)
		if err != nil {
			return err
		}
		if input.Name != nil {
			p.Name = name
		}
		if input.Description != nil {
			p.Description = strings.TrimSpace(*input.Description)
		}
		p.UpdatedAt = uc.fx.Now()
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.fx.Record(ctx, updated.ID, input.Actor, domain.ActionProjectUpdated, "Updated project "+updated.Name, nil)
	return &UpdateProjectResult{Project: updated}, nil
}
