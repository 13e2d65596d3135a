package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/metrics"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Service is the only component permitted to permanently destroy content.
// It computes retention windows, extends them on re-flag, and runs the
// idempotent sweep on behalf of the scheduling collaborator.
type Service struct {
	appCtx      *app.AppContext
	messageRepo *repository.MessageRepository
	sessionRepo *repository.SessionRepository
}

// NewService creates the retention service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		sessionRepo: repository.NewSessionRepository(appCtx.DB),
	}
}

// FlagMessage marks a message flagged after creation and recomputes its
// retention from the original creation time. Extend-only: re-flagging can
// never shorten the window.
func (s *Service) FlagMessage(ctx context.Context, messageID uint64) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	candidate := For(s.appCtx.Rules, msg.CreatedAt, true)
	if err := s.messageRepo.Flag(ctx, messageID, candidate); err != nil {
		return err
	}
	s.appCtx.Logger.Info("message flagged", "message", messageID, "retain_until", candidate)
	return nil
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	MessagesDeleted   int64
	RecordingsCleared int64
	ImminentNotified  int
}

// SweepExpired deletes all messages and recordings whose retention date
// has passed, and emits retention-imminent events for content expiring
// within the configured horizon.
//
// Behavior:
//   - Filters by a point-in-time snapshot of the clock; concurrent user
//     writes are unaffected and never block the sweep.
//   - Safe to run repeatedly and concurrently; an empty pass is success.
//   - Step failures are logged and retried on the next scheduled run; one
//     failing step never aborts the others.
func (s *Service) SweepExpired(ctx context.Context) (SweepReport, error) {
	now := s.appCtx.Clock.Now()
	report := SweepReport{}
	var errs []error

	deleted, err := s.messageRepo.DeleteExpired(ctx, now)
	if err != nil {
		s.appCtx.Logger.Error("message sweep failed", "err", err)
		errs = append(errs, fmt.Errorf("message sweep: %w", err))
	} else {
		report.MessagesDeleted = deleted
		metrics.RecordSwept("messages", deleted)
	}

	cleared, err := s.sessionRepo.ClearExpiredRecordings(ctx, now)
	if err != nil {
		s.appCtx.Logger.Error("recording sweep failed", "err", err)
		errs = append(errs, fmt.Errorf("recording sweep: %w", err))
	} else {
		report.RecordingsCleared = cleared
		metrics.RecordSwept("recordings", cleared)
	}

	expiring, err := s.messageRepo.ExpiringBetween(ctx, now, now.Add(s.appCtx.Rules.RetentionHorizon))
	if err != nil {
		s.appCtx.Logger.Error("retention horizon scan failed", "err", err)
		errs = append(errs, err)
	} else {
		for _, msg := range expiring {
			s.appCtx.Events.Publish(ctx, events.RetentionImminent{
				MessageID:      msg.ID,
				ConversationID: msg.ConversationID,
				RetentionDate:  msg.RetentionDate,
			})
		}
		report.ImminentNotified = len(expiring)
	}

	s.appCtx.Logger.Info("sweep finished",
		"messages_deleted", report.MessagesDeleted,
		"recordings_cleared", report.RecordingsCleared,
		"imminent", report.ImminentNotified,
	)
	return report, errors.Join(errs...)
}
