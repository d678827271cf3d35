package project

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

type DeleteProjectInput struct {
	ProjectID domain.ProjectID
	Actor     domain.UserID
}

type DeleteProjectResult struct {
	DeletedVersions int
	FilesRemoved    int
}

// DeleteProject removes a project with its versions, access requests and
// activity. Stored files are removed after the metadata commit.
type DeleteProject struct {
	tx  ports.TxManager
	fx  *effects.Runner
	log zerolog.Logger
}

func NewDeleteProject(tx ports.TxManager, fx *effects.Runner, log zerolog.Logger) *DeleteProject {
	return &DeleteProject{tx: tx, fx: fx, log: log}
}

func (uc *DeleteProject) Execute(ctx context.Context, input DeleteProjectInput) (*DeleteProjectResult, error) {
	var (
		name     string
		versions []*domain.Version
	)
	err := uc.tx.WithProjectLock(ctx, input.ProjectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := Load(ctx, tx.Projects(), input.ProjectID, input.Actor, domain.LevelAdmin)
		if err != nil {
			return err
		}
		name = p.Name
		versions, err = tx.Versions().DeleteByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		return tx.Projects().Delete(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	res := &DeleteProjectResult{DeletedVersions: len(versions)}
	for _, v := range versions {
		if uc.fx.DeleteObject(ctx, input.ProjectID, v.ID, v.File.Key) {
			res.FilesRemoved++
		}
	}
	uc.log.Info().
		Str("project_id", input.ProjectID.String()).
		Str("name", name).
		Str("actor", input.Actor.String()).
		Int("versions", res.DeletedVersions).
		Int("files_removed", res.FilesRemoved).
		Msg(string(domain.ActionProjectDeleted))
	return res, nil
}
