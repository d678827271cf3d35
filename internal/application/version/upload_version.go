package version

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

// DefaultUploadURLTTL is the lifetime of a presigned upload URL.
const DefaultUploadURLTTL = 15 * time.Minute

// DefaultUploadTimeout bounds the storage write of a server-side upload.
const DefaultUploadTimeout = 5 * time.Minute

func keyPrefix(projectID domain.ProjectID) string {
	return "projects/" + projectID.String() + "/versions/"
}

// ObjectKey is the storage key for a new file of projectID.
func ObjectKey(projectID domain.ProjectID, fileName string) string {
	return fmt.Sprintf("%s%s%s", keyPrefix(projectID), uuid.New(), strings.ToLower(path.Ext(fileName)))
}

// OwnsKey reports whether key names an object directly under projectID's
// version prefix, as produced by ObjectKey.
func OwnsKey(projectID domain.ProjectID, key string) bool {
	rest, ok := strings.CutPrefix(key, keyPrefix(projectID))
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return false
	}
	return !strings.Contains(key, "..")
}

// UploadVersionInput streams the file through the service.
type UploadVersionInput struct {
	ProjectID     domain.ProjectID
	Actor         domain.UserID
	FileName      string
	ContentType   string
	Size          int64
	Body          io.Reader
	Notes         string
	VersionNumber int
}

// UploadVersion stores the bytes first and only then records the version.
// A storage failure leaves no metadata behind; a metadata failure removes
// the stored object.
type UploadVersion struct {
	projects ports.ProjectRepository
	storage  ports.ObjectStorage
	create   *CreateVersion
	timeout  time.Duration
}

func NewUploadVersion(projects ports.ProjectRepository, storage ports.ObjectStorage, create *CreateVersion, timeout time.Duration) *UploadVersion {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return &UploadVersion{projects: projects, storage: storage, create: create, timeout: timeout}
}

func (uc *UploadVersion) Execute(ctx context.Context, input UploadVersionInput) (*CreateVersionResult, error) {
	name := strings.TrimSpace(input.FileName)
	if name == "" || input.Body == nil {
		return nil, domerrors.ErrFileRequired
	}
	if input.VersionNumber < 0 {
		return nil, domerrors.ErrInvalidVersionNumber
	}
	if _, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelEdit); err != nil {
		return nil, err
	}
	key := ObjectKey(input.ProjectID, name)
	putCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	location, err := uc.storage.PutObject(putCtx, key, input.Body, input.Size, input.ContentType)
	cancel()
	if err != nil {
		return nil, domerrors.Upstream("file upload failed", err)
	}
	file := domain.FileRef{
		Key:         key,
		URL:         location,
		Name:        name,
		Size:        input.Size,
		ContentType: input.ContentType,
	}
	res, err := uc.create.create(ctx, input.ProjectID, input.Actor, file, input.Notes, input.VersionNumber)
	if err != nil {
		uc.create.fx.DeleteObject(ctx, input.ProjectID, domain.VersionID{}, key)
		return nil, err
	}
	return res, nil
}

type UploadURLInput struct {
	ProjectID   domain.ProjectID
	Actor       domain.UserID
	FileName    string
	ContentType string
}

type UploadURLResult struct {
	UploadURL string
	Key       string
	ExpiresIn time.Duration
}

// UploadURL presigns a direct upload. The client registers the stored file
// afterwards through CreateVersion with the returned key.
type UploadURL struct {
	projects ports.ProjectRepository
	storage  ports.ObjectStorage
	ttl      time.Duration
}

func NewUploadURL(projects ports.ProjectRepository, storage ports.ObjectStorage, ttl time.Duration) *UploadURL {
	if ttl <= 0 {
		ttl = DefaultUploadURLTTL
	}
	return &UploadURL{projects: projects, storage: storage, ttl: ttl}
}

func (uc *UploadURL) Execute(ctx context.Context, input UploadURLInput) (*UploadURLResult, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, domerrors.ErrFileRequired
	}
	if _, err := project.Load(ctx, uc.projects, input.ProjectID, input.Actor, domain.LevelEdit); err != nil {
		return nil, err
	}
	key := ObjectKey(input.ProjectID, input.FileName)
	url, err := uc.storage.SignedURL(ctx, key, ports.SignPut, uc.ttl)
	if err != nil {
		return nil, domerrors.Upstream("could not sign upload url", err)
	}
	return &UploadURLResult{UploadURL: url, Key: key, ExpiresIn: uc.ttl}, nil
}
