package ports

import (
	"context"

	"github.com/projectnexus/nexus/internal/domain"
)

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Projects() ProjectRepository
	Versions() VersionRepository
}

// TxManager serializes writers per project. fn runs while holding an
// exclusive lock on the project; its writes commit together when it returns
// nil and are discarded otherwise.
type TxManager interface {
	WithProjectLock(ctx context.Context, projectID domain.ProjectID, fn func(ctx context.Context, tx Tx) error) error
}
