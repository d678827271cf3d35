package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	domerrors "github.com/projectnexus/nexus/internal/domain/errors"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	email := strings.ToLower(user.Email)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.emails[email]; ok {
		return domerrors.ErrUserExists
	}
	u := *user
	u.Email = email
	r.s.users[u.ID] = &u
	r.s.emails[email] = u.ID
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	email := strings.ToLower(user.Email)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.users[user.ID]
	if !ok {
		return domerrors.ErrUserNotFound
	}
	if owner, taken := r.s.emails[email]; taken && owner != user.ID {
		return domerrors.ErrUserExists
	}
	delete(r.s.emails, old.Email)
	u := *user
	u.Email = email
	r.s.users[u.ID] = &u
	r.s.emails[email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	c := *r.s.users[id]
	return &c, nil
}

// Search matches query case-insensitively against name and email.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	r.s.mu.RLock()
	var out []*domain.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			c := *u
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
