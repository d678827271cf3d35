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

type RevertInput struct {
	ProjectID domain.ProjectID
	VersionID domain.VersionID
	Actor     domain.UserID
}

type RevertResult struct {
	Project       *domain.Project
	Target        *domain.Version
	Deleted       []*domain.Version
	FilesNotFreed int
}

// RevertToVersion makes an approved version current again and permanently
// deletes every approved version numbered above it. Pending and rejected
// versions are left alone.
type RevertToVersion struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewRevertToVersion(tx ports.TxManager, fx *effects.Runner) *RevertToVersion {
	return &RevertToVersion{tx: tx, fx: fx}
}

func (uc *RevertToVersion) Execute(ctx context.Context, input RevertInput) (*RevertResult, error) {
	res := &RevertResult{}
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := project.Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		target, err := tx.Versions().GetByID(ctx, p.ID, input.VersionID)
		if err != nil {
			return err
		}
		if target == nil || target.Status != domain.VersionApproved {
			return domerrors.ErrApprovedVersionNotFound
		}
		newer, err := tx.Versions().ListByProject(ctx, p.ID, ports.VersionFilter{
			Status:      domain.VersionApproved,
			AboveNumber: target.VersionNumber,
		})
		if err != nil {
			return err
		}
		for _, v := range newer {
			if err := tx.Versions().Delete(ctx, p.ID, v.ID); err != nil {
				return err
			}
			p.RemoveVersion(v.ID)
		}
		p.AddVersion(target.ID)
		p.SetCurrent(target.ID)
		p.UpdatedAt = uc.fx.Now()
		if err := tx.Projects().Update(ctx, p); err != nil {
			return err
		}
		res.Project, res.Target, res.Deleted = p, target, newer
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range res.Deleted {
		if !uc.fx.DeleteObject(ctx, input.ProjectID, v.ID, v.File.Key) {
			res.FilesNotFreed++
		}
	}
	uc.fx.Record(ctx, input.ProjectID, input.Actor, domain.ActionVersionReverted,
		"Reverted to version "+strconv.Itoa(res.Target.VersionNumber),
		map[string]any{"versionNumber": res.Target.VersionNumber, "deletedVersions": len(res.Deleted)})
	return res, nil
}
