package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessions_ReuseAndSweep(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := NewSessions(Options{
		Directory: seedScenario(),
		Store:     newFakeStore(),
		Now:       func() time.Time { return now },
	}, 10*time.Minute)

	c1 := s.Coordinator("u1")
	if s.Coordinator("u1") != c1 {
		t.Fatalf("expected same coordinator for the same user")
	}
	_ = s.Desk("u2")
	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}

	now = now.Add(5 * time.Minute)
	_ = s.Coordinator("u2")
	now = now.Add(6 * time.Minute)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if s.Len() != 1 {
		t.Fatalf("expected u2 to survive, got %d sessions", s.Len())
	}
	if s.Coordinator("u1") == c1 {
		t.Fatalf("evicted user must get a fresh coordinator")
	}

	s.Close()
	if s.Len() != 0 {
		t.Fatalf("expected no sessions after Close")
	}
}

func TestSessions_ZeroTTLNeverEvicts(t *testing.T) {
	s := NewSessions(Options{Directory: seedScenario(), Store: newFakeStore()}, 0)
	_ = s.Coordinator("u1")
	if n := s.Sweep(); n != 0 || s.Len() != 1 {
		t.Fatalf("expected no eviction, got %d (len=%d)", n, s.Len())
	}
}

func TestSessions_SweepSkipsAcquiredCoordinator(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := NewSessions(Options{
		Directory: seedScenario(),
		Store:     newFakeStore(),
		Now:       func() time.Time { return now },
	}, time.Minute)

	coord, release := s.Acquire("owner-1")
	now = now.Add(time.Hour)

	if n := s.Sweep(); n != 0 {
		t.Fatalf("expected acquired session to survive, evicted %d", n)
	}
	if _, err := coord.resolver.SelectPet(context.Background(), "P1"); err != nil {
		t.Fatalf("coordinator closed while in use: %v", err)
	}
	settle(t, coord.resolver)

	release()
	release()
	if n := s.Sweep(); n != 0 {
		t.Fatalf("release must refresh lastSeen, evicted %d", n)
	}

	now = now.Add(2 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Fatalf("expected eviction after release and idle TTL, got %d", n)
	}
	if _, err := coord.resolver.SelectPet(context.Background(), "P1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected evicted coordinator to be closed, got %v", err)
	}
}
