package interview

import (
	"context"
	"log/slog"
	"time"

	"github.com/hirevox/interview-server/internal/config"
	"github.com/hirevox/interview-server/internal/domain"
	"github.com/hirevox/interview-server/internal/transcript"
)

// turnFailedMessage is the generic user-visible apology for a failed turn.
const turnFailedMessage = "Sorry, I ran into a problem processing that. Could you repeat your last response?"

// malformedFrameMessage is sent when a client frame cannot be handled.
const malformedFrameMessage = "Sorry, I couldn't understand that message. Please try again."

// Conclusion reasons, used for wording selection and transcript logging.
const (
	reasonBudget  = "budget_exhausted"
	reasonSilence = "repeated_silence"
)

// Gateway generates one model turn from a full conversation transcript.
type Gateway interface {
	GenerateTurn(ctx context.Context, transcript []domain.Turn, temperature float64) (string, error)
}

// Emitter delivers a server event to the connected client.
type Emitter interface {
	Emit(ctx context.Context, ev domain.ServerEvent) error
}

// Orchestrator drives the per-session interview state machine: opening turn,
// banded questions, the inactivity follow-up ladder, and the closing turn.
// All failures are handled locally; a failed gateway call surfaces as one
// error event and leaves the session exactly as it was before the turn.
type Orchestrator struct {
	gw     Gateway
	cfg    config.InterviewConfig
	tlog   transcript.Logger
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil transcript logger disables
// transcript logging.
func NewOrchestrator(gw Gateway, cfg config.InterviewConfig, tlog transcript.Logger, logger *slog.Logger) *Orchestrator {
	if tlog == nil {
		tlog = transcript.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gw: gw, cfg: cfg, tlog: tlog, logger: logger}
}

// StartInterview handles a start_interview event: it issues the opening turn
// and arms the inactivity timer. Starting over on a concluded session resets
// it and begins a fresh interview; starting while one is active is ignored.
func (o *Orchestrator) StartInterview(ctx context.Context, s *Session, emit Emitter) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		o.logger.Warn("start_interview ignored, interview already active", "session_id", s.id)
		return
	}
	s.resetLocked()
	s.active = true
	s.touchLocked()
	rp := s.restorePointLocked()
	s.appendLocked(domain.UserTurn(openingDirective()))
	payload := s.transcriptCopyLocked()
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	reply, err := o.gw.GenerateTurn(ctx, payload, defaultTemperature)

	s.mu.Lock()
	if !s.epochMatchesLocked(epoch) {
		s.mu.Unlock()
		o.logger.Debug("discarding stale opening turn", "session_id", s.id)
		return
	}
	if err != nil {
		// Back to idle with a clean transcript so the client can retry the start.
		s.restoreLocked(rp)
		s.active = false
		s.mu.Unlock()
		o.reportFailure(ctx, s, emit, "opening", err)
		return
	}
	s.appendLocked(domain.ModelTurn(reply))
	s.touchLocked()
	o.armInactivityTimerLocked(ctx, s, emit)
	s.mu.Unlock()

	o.logTurn(s, transcript.EventQuestion, reply, map[string]any{"first_question": true})
	o.send(ctx, s, emit, domain.ServerEvent{
		Type:            domain.EventResponse,
		Text:            reply,
		IsFirstQuestion: true,
	})
	o.logger.Info("Interview started", "session_id", s.id)
}

// HandleMessage handles a candidate message: it cancels the pending timer,
// resets the follow-up ladder, advances the question count, reclassifies the
// candidate level, and issues either the next question or the conclusion.
func (o *Orchestrator) HandleMessage(ctx context.Context, s *Session, text string, emit Emitter) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		o.logger.Debug("message ignored, no active interview", "session_id", s.id)
		return
	}
	s.cancelTimerLocked()
	s.touchLocked()
	rp := s.restorePointLocked()
	s.followupCount = 0
	s.questionCount++
	s.level = domain.ClassifyLevel(s.level, text)
	s.appendLocked(domain.UserTurn(text))
	qc := s.questionCount
	level := s.level

	o.logTurnIDs(s.id, s.userID, s.interviewID, transcript.EventAnswer, text, map[string]any{
		"question_count": qc,
		"level":          string(level),
	})

	if qc >= o.cfg.MaxQuestions {
		o.runConclusion(ctx, s, emit, reasonBudget, rp)
		return
	}

	s.appendLocked(domain.UserTurn(nextQuestionDirective(qc, level, o.cfg.MaxQuestions)))
	payload := s.transcriptCopyLocked()
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	reply, err := o.gw.GenerateTurn(ctx, payload, questionTemperature(qc))

	s.mu.Lock()
	if !s.epochMatchesLocked(epoch) {
		s.mu.Unlock()
		o.logger.Debug("discarding stale question turn", "session_id", s.id)
		return
	}
	if err != nil {
		s.restoreLocked(rp)
		o.armInactivityTimerLocked(ctx, s, emit)
		s.mu.Unlock()
		o.reportFailure(ctx, s, emit, "question", err)
		return
	}
	s.appendLocked(domain.ModelTurn(reply))
	s.touchLocked()
	o.armInactivityTimerLocked(ctx, s, emit)
	s.mu.Unlock()

	o.logTurn(s, transcript.EventQuestion, reply, map[string]any{"question_count": qc})
	o.send(ctx, s, emit, domain.ServerEvent{
		Type:          domain.EventResponse,
		Text:          reply,
		QuestionCount: qc,
	})
}

// handleInactivity runs when the inactivity timer fires: up to MaxFollowups
// re-engagement turns, then a forced conclusion. gen is the timer generation
// the callback was armed with; stale callbacks are dropped.
func (o *Orchestrator) handleInactivity(ctx context.Context, s *Session, emit Emitter, gen uint64) {
	s.mu.Lock()
	if !s.acceptTimerFireLocked(gen) {
		s.mu.Unlock()
		return
	}

	rp := s.restorePointLocked()
	if s.followupCount >= o.cfg.MaxFollowups {
		o.runConclusion(ctx, s, emit, reasonSilence, rp)
		return
	}

	s.followupCount++
	fc := s.followupCount
	s.appendLocked(domain.UserTurn(followupDirective(fc)))
	payload := s.transcriptCopyLocked()
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	reply, err := o.gw.GenerateTurn(ctx, payload, followupTemperature)

	s.mu.Lock()
	if !s.epochMatchesLocked(epoch) {
		s.mu.Unlock()
		o.logger.Debug("discarding stale follow-up turn", "session_id", s.id)
		return
	}
	if err != nil {
		s.restoreLocked(rp)
		o.armInactivityTimerLocked(ctx, s, emit)
		s.mu.Unlock()
		o.reportFailure(ctx, s, emit, "followup", err)
		return
	}
	s.appendLocked(domain.ModelTurn(reply))
	s.questionCount++
	qc := s.questionCount
	budgetDone := qc >= o.cfg.MaxQuestions
	if !budgetDone {
		o.armInactivityTimerLocked(ctx, s, emit)
	}
	s.mu.Unlock()

	o.logTurn(s, transcript.EventFollowup, reply, map[string]any{
		"followup_count": fc,
		"question_count": qc,
	})
	o.send(ctx, s, emit, domain.ServerEvent{
		Type:          domain.EventResponse,
		Text:          reply,
		IsFollowup:    true,
		FollowupCount: fc,
	})

	if budgetDone {
		s.mu.Lock()
		if !s.active {
			s.mu.Unlock()
			return
		}
		o.runConclusion(ctx, s, emit, reasonBudget, s.restorePointLocked())
	}
}

// runConclusion issues the closing turn and retires the session. It must be
// entered with s.mu held and releases it before returning. On gateway
// failure the session is rolled back to rp and stays active so the client
// can retry.
func (o *Orchestrator) runConclusion(ctx context.Context, s *Session, emit Emitter, reason string, rp restorePoint) {
	s.appendLocked(domain.UserTurn(conclusionDirective(reason == reasonSilence)))
	payload := s.transcriptCopyLocked()
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	reply, err := o.gw.GenerateTurn(ctx, payload, defaultTemperature)

	s.mu.Lock()
	if !s.epochMatchesLocked(epoch) {
		s.mu.Unlock()
		o.logger.Debug("discarding stale conclusion turn", "session_id", s.id)
		return
	}
	if err != nil {
		s.restoreLocked(rp)
		o.armInactivityTimerLocked(ctx, s, emit)
		s.mu.Unlock()
		o.reportFailure(ctx, s, emit, "conclusion", err)
		return
	}
	s.appendLocked(domain.ModelTurn(reply))
	s.active = false
	s.cancelTimerLocked()
	s.touchLocked()
	s.mu.Unlock()

	o.logTurn(s, transcript.EventConclusion, reply, map[string]any{"reason": reason})
	o.send(ctx, s, emit, domain.ServerEvent{
		Type:         domain.EventResponse,
		Text:         reply,
		IsConclusion: true,
	})
	o.logger.Info("Interview concluded", "session_id", s.id, "reason", reason)
}

// armInactivityTimerLocked arms the session's inactivity timer. Caller must
// hold s.mu. The connection context is captured so timer-initiated turns are
// aborted when the client disconnects.
func (o *Orchestrator) armInactivityTimerLocked(ctx context.Context, s *Session, emit Emitter) {
	s.scheduleTimerLocked(o.cfg.InactivityTimeout, func(gen uint64) {
		o.handleInactivity(ctx, s, emit, gen)
	})
}

// reportFailure logs a failed turn and emits the single generic error event.
func (o *Orchestrator) reportFailure(ctx context.Context, s *Session, emit Emitter, turn string, err error) {
	o.logger.Error("Interview turn failed", "session_id", s.id, "turn", turn, "error", err)
	o.logTurn(s, transcript.EventError, err.Error(), map[string]any{"turn": turn})
	o.send(ctx, s, emit, domain.ServerEvent{
		Type: domain.EventError,
		Text: turnFailedMessage,
	})
}

func (o *Orchestrator) send(ctx context.Context, s *Session, emit Emitter, ev domain.ServerEvent) {
	if err := emit.Emit(ctx, ev); err != nil {
		o.logger.Debug("failed to emit event", "session_id", s.id, "type", ev.Type, "error", err)
	}
}

// logTurn records a transcript event. Must not be called with s.mu held;
// use logTurnIDs from inside a critical section.
func (o *Orchestrator) logTurn(s *Session, eventType, content string, meta map[string]any) {
	userID, interviewID := s.Participant()
	o.logTurnIDs(s.id, userID, interviewID, eventType, content, meta)
}

func (o *Orchestrator) logTurnIDs(sessionID, userID, interviewID, eventType, content string, meta map[string]any) {
	var role string
	switch eventType {
	case transcript.EventAnswer:
		role = domain.RoleUser
	case transcript.EventError:
		// A failed turn produced no turn text; leave the role empty.
	default:
		role = domain.RoleModel
	}
	o.tlog.Log(transcript.Event{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:   sessionID,
		UserID:      userID,
		InterviewID: interviewID,
		EventType:   eventType,
		Role:        role,
		Content:     content,
		Meta:        meta,
	})
}
