package lockout

import (
	"context"
	"testing"
)

func TestMemoryStoreLocksAfterMax(t *testing.T) {
	s := NewMemoryStore(2, 60)
	ctx := context.Background()
	s.RecordFailure(ctx, "a@example.com")
	if locked, _ := s.IsLocked(ctx, "a@example.com"); locked {
		t.Fatal("locked after one failure")
	}
	s.RecordFailure(ctx, "A@example.com")
	locked, retry := s.IsLocked(ctx, "a@example.com")
	if !locked || retry < 1 {
		t.Fatalf("locked=%v retry=%d", locked, retry)
	}
	s.RecordSuccess(ctx, "a@example.com")
	if locked, _ := s.IsLocked(ctx, "a@example.com"); locked {
		t.Fatal("success did not clear lock")
	}
}

func TestMemoryStoreDisabled(t *testing.T) {
	s := NewMemoryStore(0, 60)
	for i := 0; i < 10; i++ {
		s.RecordFailure(context.Background(), "a@example.com")
	}
	if locked, _ := s.IsLocked(context.Background(), "a@example.com"); locked {
		t.Fatal("disabled store locked")
	}
}
