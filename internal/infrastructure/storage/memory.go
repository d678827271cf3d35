package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process. Signed URLs point at baseURL and
// carry the mode and expiry as query parameters; nothing verifies them.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
	now     func() time.Time
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &MemoryStorage{objects: make(map[string]object), baseURL: baseURL, now: time.Now}
}

func (s *MemoryStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return "", err
	}
	if size >= 0 && n != size {
		return "", fmt.Errorf("short upload: got %d of %d bytes", n, size)
	}
	s.mu.Lock()
	s.objects[key] = object{data: buf.Bytes(), contentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStorage) SignedURL(ctx context.Context, key string, mode ports.SignMode, ttl time.Duration) (string, error) {
	q := url.Values{}
	q.Set("mode", string(mode))
	q.Set("expires", s.now().Add(ttl).UTC().Format(time.RFC3339))
	return s.baseURL + "/" + key + "?" + q.Encode(), nil
}

// DeleteObject is idempotent like S3's.
func (s *MemoryStorage) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns a stored object's bytes.
func (s *MemoryStorage) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	return o.data, o.contentType, ok
}

func (s *MemoryStorage) Ping(ctx context.Context) error { return nil }

var _ ports.ObjectStorage = (*MemoryStorage)(nil)
