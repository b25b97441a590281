package interview

import (
	"testing"
	"time"
)

func TestStoreCreateGetDelete(t *testing.T) {
	st := NewStore()

	s := st.Create("sess-1")
	if st.Get("sess-1") != s {
		t.Error("Expected Get to return the created session")
	}
	if st.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", st.Len())
	}

	st.Delete("sess-1")
	if st.Get("sess-1") != nil {
		t.Error("Expected nil after delete")
	}
	if st.Len() != 0 {
		t.Errorf("Expected 0 sessions, got %d", st.Len())
	}
}

func TestStoreDeleteUnknownIsSafe(t *testing.T) {
	st := NewStore()
	st.Delete("never-existed")
}

func TestStoreDeleteCancelsTimerAndInvalidates(t *testing.T) {
	st := NewStore()
	s := st.Create("sess-1")
	s.active = true

	s.mu.Lock()
	s.scheduleTimerLocked(time.Hour, func(uint64) {})
	epochBefore := s.epoch
	s.mu.Unlock()

	st.Delete("sess-1")

	if s.TimerPending() {
		t.Error("Expected timer cancelled on delete")
	}
	if s.Active() {
		t.Error("Expected session inactive on delete")
	}
	s.mu.Lock()
	if s.epoch == epochBefore {
		t.Error("Expected epoch to advance on delete so in-flight turns go stale")
	}
	s.mu.Unlock()
}

func TestStoreCreateReplacesExisting(t *testing.T) {
	st := NewStore()
	old := st.Create("sess-1")
	old.active = true

	replacement := st.Create("sess-1")
	if replacement == old {
		t.Fatal("Expected a fresh session on re-create")
	}
	if old.Active() {
		t.Error("Expected replaced session to be invalidated")
	}
	if st.Get("sess-1") != replacement {
		t.Error("Expected store to hold the replacement")
	}
}

func TestStoreIdleSelection(t *testing.T) {
	st := NewStore()
	stale := st.Create("stale")
	st.Create("fresh")

	stale.mu.Lock()
	stale.lastActivity = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	idle := st.Idle(time.Hour)
	if len(idle) != 1 || idle[0] != stale {
		t.Fatalf("Expected only the stale session, got %d", len(idle))
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	st := NewStore()
	s := st.Create("stale")
	closed := false
	s.bindCloser(func() { closed = true })

	s.mu.Lock()
	s.lastActivity = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	sweepIdleSessions(st, time.Hour)

	if !closed {
		t.Error("Expected idle session closer to be invoked")
	}
	if st.Len() != 0 {
		t.Errorf("Expected idle session removed from store, got %d", st.Len())
	}
}
