package version

import (
	"context"
	"strconv"
	"strings"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type UpdateVersionStatusInput struct {
	ProjectID domain.ProjectID
	VersionID domain.VersionID
	Actor     domain.UserID
	Status    domain.VersionStatus
	Notes     *string
}

type UpdateVersionStatusResult struct {
	Version *domain.Version
	Project *domain.Project
}

// UpdateVersionStatus approves or rejects a pending version. Approval makes
// it current; rejection deletes its stored file.
type UpdateVersionStatus struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewUpdateVersionStatus(tx ports.TxManager, fx *effects.Runner) *UpdateVersionStatus {
	return &UpdateVersionStatus{tx: tx, fx: fx}
}

func (uc *UpdateVersionStatus) Execute(ctx context.Context, input UpdateVersionStatusInput) (*UpdateVersionStatusResult, error) {
	if !input.Status.Decision() {
		return nil, domerrors.ErrInvalidDecision
	}
	var res UpdateVersionStatusResult
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := project.Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		v, err := tx.Versions().GetByID(ctx, p.ID, input.VersionID)
		if err != nil {
			return err
		}
		if v == nil || v.Status != domain.VersionPending {
			return domerrors.ErrPendingVersionNotFound
		}
		now := uc.fx.Now()
		v.Decide(input.Status, input.Actor, now)
		if input.Notes != nil {
			v.Notes = strings.TrimSpace(*input.Notes)
		}
		if input.Status == domain.VersionApproved {
			p.AddVersion(v.ID)
			p.SetCurrent(v.ID)
			p.UpdatedAt = now
			if err := tx.Projects().Update(ctx, p); err != nil {
				return err
			}
		}
		if err := tx.Versions().Update(ctx, v); err != nil {
			return err
		}
		res.Version, res.Project = v, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	v, p := res.Version, res.Project
	uc.fx.Transition(v.Status)
	action := domain.ActionVersionApproved
	if v.Status == domain.VersionRejected {
		action = domain.ActionVersionRejected
		uc.fx.DeleteObject(ctx, p.ID, v.ID, v.File.Key)
	}
	uc.fx.Notify(ctx, input.Actor, effects.VersionDecided(p, v, input.Actor))
	uc.fx.Record(ctx, p.ID, input.Actor, action,
		"Version "+strconv.Itoa(v.VersionNumber)+" "+string(v.Status),
		map[string]any{"versionId": v.ID.String(), "versionNumber": v.VersionNumber})
	return &res, nil
}
