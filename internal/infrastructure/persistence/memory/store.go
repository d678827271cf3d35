// Package memory is an in-process backend for every repository port. It is
// used for development and tests; state is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
)

// Store holds all entities behind one RWMutex. Writers that must see a
// consistent project (version numbering, revert) additionally hold the
// per-project lock from WithProjectLock.
type Store struct {
	mu            sync.RWMutex
	users         map[domain.UserID]*domain.User
	emails        map[string]domain.UserID
	projects      map[domain.ProjectID]*domain.Project
	versions      map[domain.VersionID]*domain.Version
	activities    map[domain.ProjectID][]*domain.Activity
	notifications map[domain.UserID][]*domain.Notification

	lockMu sync.Mutex
	locks  map[domain.ProjectID]chan struct{}
}

func NewStore() *Store {
	return &Store{
		users:         make(map[domain.UserID]*domain.User),
		emails:        make(map[string]domain.UserID),
		projects:      make(map[domain.ProjectID]*domain.Project),
		versions:      make(map[domain.VersionID]*domain.Version),
		activities:    make(map[domain.ProjectID][]*domain.Activity),
		notifications: make(map[domain.UserID][]*domain.Notification),
		locks:         make(map[domain.ProjectID]chan struct{}),
	}
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Projects() *ProjectRepository           { return &ProjectRepository{s: s} }
func (s *Store) Versions() *VersionRepository           { return &VersionRepository{s: s} }
func (s *Store) Activities() *ActivityRepository        { return &ActivityRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

func (s *Store) projectLock(id domain.ProjectID) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// WithProjectLock implements ports.TxManager. Writes made through tx are
// staged and applied atomically when fn returns nil.
func (s *Store) WithProjectLock(ctx context.Context, projectID domain.ProjectID, fn func(ctx context.Context, tx ports.Tx) error) error {
	l := s.projectLock(projectID)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l }()

	st := &stage{
		s:        s,
		projects: make(map[domain.ProjectID]*domain.Project),
		versions: make(map[domain.VersionID]*domain.Version),
	}
	if err := fn(ctx, st); err != nil {
		return err
	}
	s.commit(st)
	return nil
}

func (s *Store) commit(st *stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range st.projects {
		if p == nil {
			s.deleteProjectLocked(id)
			continue
		}
		s.projects[id] = p
	}
	for id, v := range st.versions {
		if v == nil {
			delete(s.versions, id)
			continue
		}
		s.versions[id] = v
	}
}

func (s *Store) deleteProjectLocked(id domain.ProjectID) {
	delete(s.projects, id)
	delete(s.activities, id)
	for vid, v := range s.versions {
		if v.ProjectID == id {
			delete(s.versions, vid)
		}
	}
}

var _ ports.TxManager = (*Store)(nil)
