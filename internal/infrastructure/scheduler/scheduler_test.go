package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegisterAndRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	calls := 0
	err := s.Register(Task{Name: "purge", Schedule: "0 3 * * *", Handler: func(ctx context.Context) error {
		calls++
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RunNow("purge"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatal("unknown task ran")
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	s := New(zerolog.Nop())
	noop := func(ctx context.Context) error { return nil }
	if err := s.Register(Task{Name: "bad", Schedule: "not a cron", Handler: noop}); err == nil {
		t.Fatal("bad cron accepted")
	}
	_ = s.Register(Task{Name: "a", Schedule: "@daily", Handler: noop})
	if err := s.Register(Task{Name: "a", Schedule: "@daily", Handler: noop}); err == nil {
		t.Fatal("duplicate accepted")
	}
}

func TestRunNowReturnsHandlerError(t *testing.T) {
	s := New(zerolog.Nop())
	boom := errors.New("boom")
	_ = s.Register(Task{Name: "x", Schedule: "@hourly", Handler: func(ctx context.Context) error { return boom }})
	if err := s.RunNow("x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
