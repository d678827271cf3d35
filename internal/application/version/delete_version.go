package version

import (
	"context"
	"strconv"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type DeleteVersionInput struct {
	ProjectID domain.ProjectID
	VersionID domain.VersionID
	Actor     domain.UserID
}

type DeleteVersionResult struct {
	Deleted *domain.Version
	Project *domain.Project
}

// DeleteVersion removes a version in any status. When it was current, the
// highest-numbered remaining approved version takes its place.
type DeleteVersion struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewDeleteVersion(tx ports.TxManager, fx *effects.Runner) *DeleteVersion {
	return &DeleteVersion{tx: tx, fx: fx}
}

func (uc *DeleteVersion) Execute(ctx context.Context, input DeleteVersionInput) (*DeleteVersionResult, error) {
	var res DeleteVersionResult
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := project.Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		v, err := tx.Versions().GetByID(ctx, p.ID, input.VersionID)
		if err != nil {
			return err
		}
		if v == nil {
			return domerrors.ErrVersionNotFound
		}
		if err := tx.Versions().Delete(ctx, p.ID, v.ID); err != nil {
			return err
		}
		p.RemoveVersion(v.ID)
		if p.IsCurrent(v.ID) {
			p.CurrentVersion = nil
			next, err := tx.Versions().ListByProject(ctx, p.ID, ports.VersionFilter{Status: domain.VersionApproved, Limit: 1})
			if err != nil {
				return err
			}
			if len(next) > 0 {
				p.SetCurrent(next[0].ID)
			}
		}
		p.UpdatedAt = uc.fx.Now()
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		res.Deleted, res.Project = v, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	v := res.Deleted
	uc.fx.DeleteObject(ctx, input.ProjectID, v.ID, v.File.Key)
	uc.fx.Record(ctx, input.ProjectID, input.Actor, domain.ActionVersionDeleted,
		"Deleted version "+strconv.Itoa(v.VersionNumber),
		map[string]any{"versionId": v.ID.String(), "versionNumber": v.VersionNumber})
	return &res, nil
}
