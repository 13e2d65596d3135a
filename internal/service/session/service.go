package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/metrics"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Service manages the video session state machine:
// scheduled → active → {completed, failed, cancelled}, terminal thereafter.
type Service struct {
	appCtx      *app.AppContext
	sessionRepo *repository.SessionRepository
	matchRepo   *repository.MatchRepository
}

// NewService creates the session service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		sessionRepo: repository.NewSessionRepository(appCtx.DB),
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
	}
}

// Schedule creates a session for a match the actor participates in.
func (s *Service) Schedule(ctx context.Context, actorID, matchID uint64, sessionType string, at time.Time) (*db.VideoSession, error) {
	s.appCtx.Logger.Debug("Schedule called", "actor", actorID, "match", matchID, "type", sessionType)

	if sessionType != db.SessionShort && sessionType != db.SessionExtended {
		return nil, svcErr.Validation("unknown session type %q", sessionType)
	}

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.UserAID != actorID && m.UserBID != actorID {
		return nil, svcErr.NotFound("match %d not found", matchID)
	}
	if m.Status != db.MatchActive {
		return nil, svcErr.InvalidState("match %d is %s", matchID, m.Status)
	}

	sess := &db.VideoSession{
		MatchID:      matchID,
		ParticipantA: m.UserAID,
		ParticipantB: m.UserBID,
		Type:         sessionType,
		Status:       db.SessionScheduled,
		RoomID:       uuid.NewString(),
		ScheduledAt:  at,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	metrics.RecordSessionTransition(db.SessionScheduled)
	return sess, nil
}

// Start moves a scheduled session to active and stamps started_at.
func (s *Service) Start(ctx context.Context, actorID, sessionID uint64) error {
	sess, err := s.getVisible(ctx, actorID, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != db.SessionScheduled {
		return svcErr.InvalidState("session %d is %s, cannot start", sessionID, sess.Status)
	}
	now := s.appCtx.Clock.Now()
	moved, err := s.sessionRepo.Transition(ctx, sessionID, db.SessionScheduled, db.SessionActive,
		map[string]any{"started_at": now})
	if err != nil {
		return err
	}
	if !moved {
		return svcErr.InvalidState("session %d changed state concurrently", sessionID)
	}
	metrics.RecordSessionTransition(db.SessionActive)
	return nil
}

// Complete ends an active session, computing its duration.
//
// Behavior:
//   - Duration is ended_at − started_at; a missing start time fails with
//     an invalid-state error rather than recording a zero duration.
//   - A recording reference is attached on completion; its retention stays
//     unset until a safety report files.
//   - Publishes SessionCompleted so the owning conversation re-evaluates
//     its unlock flags.
func (s *Service) Complete(ctx context.Context, actorID, sessionID uint64) (*db.VideoSession, error) {
	sess, err := s.getVisible(ctx, actorID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != db.SessionActive {
		return nil, svcErr.InvalidState("session %d is %s, cannot complete", sessionID, sess.Status)
	}
	if sess.StartedAt == nil {
		return nil, svcErr.InvalidState("session %d has no start time", sessionID)
	}

	endedAt := s.appCtx.Clock.Now()
	duration := int64(endedAt.Sub(*sess.StartedAt) / time.Second)
	recordingID := uuid.NewString()

	moved, err := s.sessionRepo.Transition(ctx, sessionID, db.SessionActive, db.SessionCompleted,
		map[string]any{
			"ended_at":         endedAt,
			"duration_seconds": duration,
			"recording_id":     recordingID,
		})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, svcErr.InvalidState("session %d changed state concurrently", sessionID)
	}

	metrics.RecordSessionTransition(db.SessionCompleted)
	s.appCtx.Events.Publish(ctx, events.SessionCompleted{
		SessionID: sessionID,
		MatchID:   sess.MatchID,
		Type:      sess.Type,
	})

	s.appCtx.Logger.Info("session completed", "session", sessionID, "match", sess.MatchID, "duration_s", duration)
	return s.sessionRepo.GetByID(ctx, sessionID)
}

// Fail moves an active session to failed, stamping ended_at when a start
// time exists.
func (s *Service) Fail(ctx context.Context, actorID, sessionID uint64) error {
	sess, err := s.getVisible(ctx, actorID, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != db.SessionActive {
		return svcErr.InvalidState("session %d is %s, cannot fail", sessionID, sess.Status)
	}
	sets := map[string]any{}
	if sess.StartedAt != nil {
		sets["ended_at"] = s.appCtx.Clock.Now()
	}
	moved, err := s.sessionRepo.Transition(ctx, sessionID, db.SessionActive, db.SessionFailed, sets)
	if err != nil {
		return err
	}
	if !moved {
		return svcErr.InvalidState("session %d changed state concurrently", sessionID)
	}
	metrics.RecordSessionTransition(db.SessionFailed)
	return nil
}

// Cancel moves a scheduled or active session to cancelled. Terminal
// sessions refuse the transition rather than silently ignoring it.
func (s *Service) Cancel(ctx context.Context, actorID, sessionID uint64) error {
	sess, err := s.getVisible(ctx, actorID, sessionID)
	if err != nil {
		return err
	}
	if sess.Terminal() {
		return svcErr.InvalidState("session %d is %s, cannot cancel", sessionID, sess.Status)
	}
	moved, err := s.sessionRepo.Transition(ctx, sessionID, sess.Status, db.SessionCancelled, nil)
	if err != nil {
		return err
	}
	if !moved {
		return svcErr.InvalidState("session %d changed state concurrently", sessionID)
	}
	metrics.RecordSessionTransition(db.SessionCancelled)
	return nil
}

// FileSafetyReport records a participant's safety report on an ended
// session and sets the recording retention window.
//
// Behavior:
//   - The flag is monotonic; a second filing is a no-op.
//   - Filed within 24h of the end: retention = ended_at + 30 days.
//   - Filed later but within 30 days: the lesser review window applies,
//     retention = filed_at + 7 days.
//   - Past 30 days the recording is already sweep-eligible and the filing
//     is refused.
//   - Retention only ever extends; an earlier candidate leaves the current
//     window untouched.
func (s *Service) FileSafetyReport(ctx context.Context, actorID, sessionID uint64) error {
	sess, err := s.getVisible(ctx, actorID, sessionID)
	if err != nil {
		return err
	}
	if sess.EndedAt == nil {
		return svcErr.InvalidState("session %d has not ended", sessionID)
	}
	if sess.SafetyReportFiled {
		return nil
	}

	now := s.appCtx.Clock.Now()
	rules := s.appCtx.Rules
	sinceEnd := now.Sub(*sess.EndedAt)

	var retainUntil time.Time
	switch {
	case sinceEnd <= rules.SafetyReportWindow:
		retainUntil = sess.EndedAt.Add(rules.RecordingRetention)
	case sinceEnd <= rules.LateReportWindow:
		retainUntil = now.Add(rules.LateReportRetention)
	default:
		return svcErr.InvalidState("session %d ended too long ago to file a report", sessionID)
	}

	flipped, err := s.sessionRepo.FileSafetyReport(ctx, sessionID, now)
	if err != nil {
		return err
	}
	if !flipped {
		// concurrent filing won the flip; retention already handled
		return nil
	}
	if err := s.sessionRepo.SetRecordingRetention(ctx, sessionID, retainUntil); err != nil {
		return err
	}

	s.appCtx.Logger.Info("safety report filed", "session", sessionID, "retain_until", retainUntil)
	return nil
}

// GetSession returns a session visible to the actor.
func (s *Service) GetSession(ctx context.Context, actorID, sessionID uint64) (*db.VideoSession, error) {
	return s.getVisible(ctx, actorID, sessionID)
}

func (s *Service) getVisible(ctx context.Context, actorID, sessionID uint64) (*db.VideoSession, error) {
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParticipantA != actorID && sess.ParticipantB != actorID {
		return nil, svcErr.NotFound("session %d not found", sessionID)
	}
	return sess, nil
}
