// Package interview implements the interview session store, the per-session
// turn orchestrator, and the WebSocket transport that drives it.
package interview

import (
	"sync"
	"time"

	"github.com/hirevox/interview-server/internal/domain"
)

// Session holds the mutable state of one connected interview. A session is
// exclusively owned by its connection handler for the connection's lifetime;
// the orchestrator and the inactivity timer are the only mutators, serialized
// by the session mutex.
type Session struct {
	mu sync.Mutex

	id          string
	userID      string
	interviewID string

	transcript    []domain.Turn
	questionCount int
	followupCount int
	active        bool
	level         domain.CandidateLevel

	// At most one inactivity timer is outstanding at any time. scheduleTimer
	// is the single setter and always cancels the previous handle first; the
	// generation counter invalidates callbacks that fire after cancellation.
	timer    *time.Timer
	timerGen uint64

	// epoch advances whenever the session begins a new turn or is
	// invalidated. A gateway call snapshots the epoch before issuing the
	// request and its result is discarded if the session moved on meanwhile.
	epoch uint64

	closer       func()
	createdAt    time.Time
	lastActivity time.Time
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		level:        domain.LevelMid,
		createdAt:    now,
		lastActivity: now,
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// SetParticipant records the user/interview correlation sent by the client.
func (s *Session) SetParticipant(userID, interviewID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.interviewID = interviewID
	s.lastActivity = time.Now()
}

// Participant returns the recorded user and interview identifiers.
func (s *Session) Participant() (userID, interviewID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.interviewID
}

// Active reports whether an interview is currently running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// QuestionCount returns the number of substantive questions asked so far.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionCount
}

// FollowupCount returns consecutive unanswered follow-ups since the last
// user message.
func (s *Session) FollowupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followupCount
}

// Level returns the inferred candidate level.
func (s *Session) Level() domain.CandidateLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// TranscriptLen returns the number of turns accumulated so far.
func (s *Session) TranscriptLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript)
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Turn(nil), s.transcript...)
}

// TimerPending reports whether an inactivity timer is outstanding.
func (s *Session) TimerPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// LastActivity returns the time of the last client or turn activity.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// bindCloser registers the function used to tear down the owning connection.
func (s *Session) bindCloser(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closer = fn
}

// Close invalidates the session and tears down the owning connection. Used
// by the idle sweeper; normal disconnects go through Store.Delete.
func (s *Session) Close() {
	s.mu.Lock()
	fn := s.closer
	s.invalidateLocked()
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// --- locked helpers, callers must hold s.mu ---

func (s *Session) touchLocked() {
	s.lastActivity = time.Now()
}

func (s *Session) appendLocked(turn domain.Turn) {
	s.transcript = append(s.transcript, turn)
}

func (s *Session) transcriptCopyLocked() []domain.Turn {
	return append([]domain.Turn(nil), s.transcript...)
}

// beginTurnLocked claims a new turn epoch and returns it.
func (s *Session) beginTurnLocked() uint64 {
	s.epoch++
	return s.epoch
}

func (s *Session) epochMatchesLocked(epoch uint64) bool {
	return s.epoch == epoch
}

// resetLocked clears interview progress for a fresh start_interview.
func (s *Session) resetLocked() {
	s.transcript = nil
	s.questionCount = 0
	s.followupCount = 0
	s.level = domain.LevelMid
	s.active = false
	s.cancelTimerLocked()
	s.epoch++
}

// invalidateLocked permanently retires the session: pending timers are
// cancelled and any in-flight gateway result becomes stale.
func (s *Session) invalidateLocked() {
	s.active = false
	s.cancelTimerLocked()
	s.epoch++
}

// scheduleTimerLocked arms the inactivity timer, cancelling any previous
// handle first. fire receives the generation it was armed with and must
// revalidate it via acceptTimerFireLocked before acting.
func (s *Session) scheduleTimerLocked(d time.Duration, fire func(gen uint64)) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(d, func() { fire(gen) })
}

// cancelTimerLocked stops the pending timer, if any, and invalidates
// callbacks that already fired but have not yet acquired the lock.
func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// acceptTimerFireLocked validates a timer callback. It returns false when the
// timer was cancelled or superseded after firing, or when the interview is no
// longer active.
func (s *Session) acceptTimerFireLocked(gen uint64) bool {
	if gen != s.timerGen || !s.active {
		return false
	}
	s.timer = nil
	return true
}

// restorePoint captures the session state a turn may need to roll back to
// when its gateway call fails.
type restorePoint struct {
	transcriptLen int
	questionCount int
	followupCount int
	level         domain.CandidateLevel
}

func (s *Session) restorePointLocked() restorePoint {
	return restorePoint{
		transcriptLen: len(s.transcript),
		questionCount: s.questionCount,
		followupCount: s.followupCount,
		level:         s.level,
	}
}

// restoreLocked rewinds counters and transcript to a restore point, leaving
// the session exactly as it was before the failed turn began.
func (s *Session) restoreLocked(rp restorePoint) {
	s.transcript = s.transcript[:rp.transcriptLen]
	s.questionCount = rp.questionCount
	s.followupCount = rp.followupCount
	s.level = rp.level
}
