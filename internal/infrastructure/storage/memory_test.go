package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/projectnexus/nexus/internal/application/ports"
)

func TestMemoryStoragePutAndDelete(t *testing.T) {
	s := NewMemoryStorage("")
	ctx := context.Background()
	loc, err := s.PutObject(ctx, "projects/p/versions/a.pdf", strings.NewReader("hello"), 5, "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	if loc != "memory://objects/projects/p/versions/a.pdf" {
		t.Fatalf("location = %q", loc)
	}
	data, ct, ok := s.Get("projects/p/versions/a.pdf")
	if !ok || string(data) != "hello" || ct != "application/pdf" {
		t.Fatalf("get = %q %q %v", data, ct, ok)
	}
	if err := s.DeleteObject(ctx, "projects/p/versions/a.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteObject(ctx, "projects/p/versions/a.pdf"); err != nil {
		t.Fatalf("second delete = %v", err)
	}
	if _, _, ok := s.Get("projects/p/versions/a.pdf"); ok {
		t.Fatal("object still present")
	}
}

func TestMemoryStorageRejectsShortBody(t *testing.T) {
	s := NewMemoryStorage("")
	if _, err := s.PutObject(context.Background(), "k", strings.NewReader("abc"), 10, ""); err == nil {
		t.Fatal("expected error for short body")
	}
}

func TestMemoryStorageSignedURL(t *testing.T) {
	s := NewMemoryStorage("http://files.local")
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	u, err := s.SignedURL(context.Background(), "k.pdf", ports.SignPut, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	want := "http://files.local/k.pdf?expires=2024-01-01T00%3A15%3A00Z&mode=put"
	if u != want {
		t.Fatalf("url = %q, want %q", u, want)
	}
}
