// Package apptest provides recording fakes and a memory-backed fixture for
// use case tests.
package apptest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/domain"
	"github.com/projectnexus/nexus/internal/infrastructure/persistence/memory"
)

// ErrInjected is returned by fakes told to fail.
var ErrInjected = errors.New("injected failure")

// Storage is an ObjectStorage that keeps bytes in memory and records deletes.
type Storage struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	Deleted    []string
	FailPut    bool
	FailDelete bool
}

func NewStorage() *Storage {
	return &Storage{Objects: make(map[string][]byte)}
}

func (s *Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if s.FailPut {
		return "", ErrInjected
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = buf.Bytes()
	return "mem://" + key, nil
}

func (s *Storage) SignedURL(ctx context.Context, key string, mode ports.SignMode, ttl time.Duration) (string, error) {
	return fmt.Sprintf("mem://%s?mode=%s&ttl=%d", key, mode, int(ttl.Seconds())), nil
}

func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	if s.FailDelete {
		return ErrInjected
	}
	delete(s.Objects, key)
	return nil
}

// DeletedKeys returns a snapshot of delete attempts.
func (s *Storage) DeletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Deleted...)
}

// Has reports whether key is stored.
func (s *Storage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// Notifier records sent notifications.
type Notifier struct {
	mu   sync.Mutex
	Sent []*domain.Notification
	Fail bool
}

func (n *Notifier) Send(ctx context.Context, msg *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Fail {
		return ErrInjected
	}
	n.Sent = append(n.Sent, msg)
	return nil
}

// To returns notifications sent to recipient.
func (n *Notifier) To(recipient domain.UserID) []*domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*domain.Notification
	for _, m := range n.Sent {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}
	return out
}

// Activity records appended entries.
type Activity struct {
	mu      sync.Mutex
	Entries []*domain.Activity
	Fail    bool
}

func (a *Activity) Append(ctx context.Context, e *domain.Activity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return ErrInjected
	}
	a.Entries = append(a.Entries, e)
	return nil
}

// Actions lists recorded actions in order.
func (a *Activity) Actions() []domain.ActivityAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ActivityAction, 0, len(a.Entries))
	for _, e := range a.Entries {
		out = append(out, e.Action)
	}
	return out
}

// Last returns the most recent entry with action, or nil.
func (a *Activity) Last(action domain.ActivityAction) *domain.Activity {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.Entries) - 1; i >= 0; i-- {
		if a.Entries[i].Action == action {
			return a.Entries[i]
		}
	}
	return nil
}

// Env wires a memory store with recording fakes.
type Env struct {
	Store    *memory.Store
	Storage  *Storage
	Notifier *Notifier
	Activity *Activity
	Effects  *effects.Runner
}

func NewEnv(t testing.TB) *Env {
	t.Helper()
	e := &Env{
		Store:    memory.NewStore(),
		Storage:  NewStorage(),
		Notifier: &Notifier{},
		Activity: &Activity{},
	}
	e.Effects = effects.NewRunner(e.Notifier, e.Activity, e.Storage, zerolog.Nop(), effects.WithTimeout(time.Second))
	return e
}

// User registers a directory entry and returns it.
func (e *Env) User(t testing.TB, name string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:        domain.NewUserID(uuid.New()),
		Email:     name + "@example.com",
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// Project loads a committed project or fails the test.
func (e *Env) Project(t testing.TB, id domain.ProjectID) *domain.Project {
	t.Helper()
	p, err := e.Store.Projects().GetByID(context.Background(), id)
	if err != nil || p == nil {
		t.Fatalf("load project %s: %v", id, err)
	}
	return p
}

// Version loads a committed version; nil when absent.
func (e *Env) Version(t testing.TB, pid domain.ProjectID, vid domain.VersionID) *domain.Version {
	t.Helper()
	v, err := e.Store.Versions().GetByID(context.Background(), pid, vid)
	if err != nil {
		t.Fatalf("load version %s: %v", vid, err)
	}
	return v
}
