package version

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// CreateVersionInput registers a file that is already stored, either by a
// key returned from UploadURL or by an external URL. VersionNumber > 0 is
// taken verbatim; zero means the next free number.
type CreateVersionInput struct {
	ProjectID     domain.ProjectID
	Actor         domain.UserID
	FileKey       string
	FileURL       string
	FileName      string
	FileSize      int64
	FileType      string
	Notes         string
	VersionNumber int
}

type CreateVersionResult struct {
	Version *domain.Version
	Project *domain.Project
}

// CreateVersion adds a version. The creator's uploads are approved and
// become current immediately; everyone else's wait for approval.
type CreateVersion struct {
	tx ports.TxManager
	fx *effects.Runner
}

func NewCreateVersion(tx ports.TxManager, fx *effects.Runner) *CreateVersion {
	return &CreateVersion{tx: tx, fx: fx}
}

func (uc *CreateVersion) Execute(ctx context.Context, input CreateVersionInput) (*CreateVersionResult, error) {
	if strings.TrimSpace(input.FileName) == "" || (input.FileKey == "" && input.FileURL == "") {
		return nil, domerrors.ErrFileRequired
	}
	if input.VersionNumber < 0 {
		return nil, domerrors.ErrInvalidVersionNumber
	}
	// Stored objects are deleted and signed on the version's behalf, so a key
	// must come from this project's own prefix.
	if input.FileKey != "" && !OwnsKey(input.ProjectID, input.FileKey) {
		return nil, domerrors.ErrForeignFileKey
	}
	file := domain.FileRef{
		Key:         input.FileKey,
		URL:         input.FileURL,
		Name:        strings.TrimSpace(input.FileName),
		Size:        input.FileSize,
		ContentType: input.FileType,
	}
	return uc.create(ctx, input.ProjectID, input.Actor, file, input.Notes, input.VersionNumber)
}

func (uc *CreateVersion) create(ctx context.Context, projectID domain.ProjectID, actor domain.UserID, file domain.FileRef, notes string, number int) (*CreateVersionResult, error) {
	var res CreateVersionResult
	err := uc.tx.WithProjectLock(ctx, projectID, func(ctx context.Context, tx ports.Tx) error {
		p, err := project.Load(ctx, tx.Projects(), projectID, actor, domain.LevelEdit)
		if err != nil {
			return err
		}
		if number == 0 {
			highest, err := tx.Versions().MaxVersionNumber(ctx, projectID)
			if err != nil {
				return err
			}
			number = highest + 1
		}
		now := uc.fx.Now()
		v := &domain.Version{
			ID:            domain.NewVersionID(uuid.New()),
			ProjectID:     projectID,
			VersionNumber: number,
			File:          file,
			UploadedBy:    actor,
			Status:        domain.VersionPending,
			Notes:         strings.TrimSpace(notes),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if p.IsCreator(actor) {
			v.Decide(domain.VersionApproved, actor, now)
			p.AddVersion(v.ID)
			p.SetCurrent(v.ID)
			p.UpdatedAt = now
			if err := tx.Projects().Update(ctx, p); err != nil {
				return err
			}
		}
		if err := tx.Versions().Create(ctx, v); err != nil {
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
	if v.Status == domain.VersionPending {
		uc.fx.Notify(ctx, actor, effects.NewVersionAwaiting(p, v))
	}
	uc.fx.Record(ctx, projectID, actor, domain.ActionVersionUploaded,
		"Uploaded version "+strconv.Itoa(v.VersionNumber),
		map[string]any{"versionId": v.ID.String(), "versionNumber": v.VersionNumber, "status": string(v.Status)})
	return &res, nil
}
