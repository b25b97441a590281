package interview

import (
	"testing"
	"time"

	"github.com/hirevox/interview-server/internal/domain"
)

// fireCounter arms session timers the way the orchestrator does, counting
// only fires that pass generation validation.
type fireCounter struct {
	s     *Session
	fired chan struct{}
}

func newFireCounter(s *Session) *fireCounter {
	return &fireCounter{s: s, fired: make(chan struct{}, 16)}
}

func (f *fireCounter) fire(gen uint64) {
	f.s.mu.Lock()
	ok := f.s.acceptTimerFireLocked(gen)
	f.s.mu.Unlock()
	if ok {
		f.fired <- struct{}{}
	}
}

func (f *fireCounter) count(settle time.Duration) int {
	time.Sleep(settle)
	n := 0
	for {
		select {
		case <-f.fired:
			n++
		default:
			return n
		}
	}
}

func TestScheduleTimerCancelsPriorHandle(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.active = true
	fc := newFireCounter(s)

	s.mu.Lock()
	s.scheduleTimerLocked(10*time.Millisecond, fc.fire)
	s.scheduleTimerLocked(10*time.Millisecond, fc.fire)
	s.mu.Unlock()

	if got := fc.count(100 * time.Millisecond); got != 1 {
		t.Errorf("Expected exactly one accepted fire, got %d", got)
	}
}

func TestCancelTimerPreventsFire(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.active = true
	fc := newFireCounter(s)

	s.mu.Lock()
	s.scheduleTimerLocked(10*time.Millisecond, fc.fire)
	s.cancelTimerLocked()
	s.mu.Unlock()

	if got := fc.count(100 * time.Millisecond); got != 0 {
		t.Errorf("Expected no fires after cancel, got %d", got)
	}
	if s.TimerPending() {
		t.Error("Expected no timer pending after cancel")
	}
}

func TestAcceptTimerFireRejectsStaleGeneration(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.active = true

	s.mu.Lock()
	s.scheduleTimerLocked(time.Hour, func(uint64) {})
	stale := s.timerGen
	s.cancelTimerLocked()
	s.scheduleTimerLocked(time.Hour, func(uint64) {})
	if s.acceptTimerFireLocked(stale) {
		t.Error("Expected stale generation to be rejected")
	}
	if !s.acceptTimerFireLocked(s.timerGen) {
		t.Error("Expected current generation to be accepted")
	}
	s.mu.Unlock()
}

func TestAcceptTimerFireRejectsInactiveSession(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.mu.Lock()
	s.scheduleTimerLocked(time.Hour, func(uint64) {})
	gen := s.timerGen
	s.active = false
	if s.acceptTimerFireLocked(gen) {
		t.Error("Expected fire on inactive session to be rejected")
	}
	s.mu.Unlock()
}

func TestRestorePointRoundTrip(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.mu.Lock()
	s.questionCount = 3
	s.followupCount = 1
	s.level = domain.LevelSenior
	s.appendLocked(domain.UserTurn("answer"))
	rp := s.restorePointLocked()

	s.questionCount++
	s.followupCount = 0
	s.level = domain.LevelJunior
	s.appendLocked(domain.UserTurn("directive"))
	s.appendLocked(domain.ModelTurn("reply"))

	s.restoreLocked(rp)
	s.mu.Unlock()

	if s.QuestionCount() != 3 || s.FollowupCount() != 1 {
		t.Errorf("Counters not restored: qc=%d fc=%d", s.QuestionCount(), s.FollowupCount())
	}
	if s.Level() != domain.LevelSenior {
		t.Errorf("Level not restored: %s", s.Level())
	}
	if s.TranscriptLen() != 1 {
		t.Errorf("Transcript not restored: %d turns", s.TranscriptLen())
	}
}

func TestCloseInvokesCloserAndInvalidates(t *testing.T) {
	t.Parallel()

	s := newSession("sess-1")
	s.active = true
	closed := false
	s.bindCloser(func() { closed = true })

	s.mu.Lock()
	s.scheduleTimerLocked(time.Hour, func(uint64) {})
	s.mu.Unlock()

	s.Close()

	if !closed {
		t.Error("Expected closer to be invoked")
	}
	if s.Active() {
		t.Error("Expected session inactive after close")
	}
	if s.TimerPending() {
		t.Error("Expected timer cancelled on close")
	}
}
