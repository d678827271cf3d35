package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/db"
)

// TxManager runs project writers in a transaction that holds the
// project's row lock until commit.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

type txRepos struct {
	projects *ProjectRepository
	versions *VersionRepository
}

func (t txRepos) Projects() ports.ProjectRepository { return t.projects }
func (t txRepos) Versions() ports.VersionRepository { return t.versions }

func (m *TxManager) WithProjectLock(ctx context.Context, projectID domain.ProjectID, fn func(ctx context.Context, tx ports.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	q := db.New(tx)
	if err := q.LockProject(ctx, projectID.UUID); err != nil {
		if isNoRows(err) {
			return domerrors.ErrProjectNotFound
		}
		return err
	}
	repos := txRepos{
		projects: NewProjectRepository(q, nil),
		versions: NewVersionRepository(q),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ ports.TxManager = (*TxManager)(nil)
