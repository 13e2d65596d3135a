package conversation

import (
	"context"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/metrics"
	"github.com/harmonia-app/matchcore/internal/repository"
	"github.com/harmonia-app/matchcore/internal/service/retention"
)

// Service owns message exchange and the progressive-disclosure unlock
// flags derived from it.
type Service struct {
	appCtx      *app.AppContext
	convRepo    *repository.ConversationRepository
	messageRepo *repository.MessageRepository
	matchRepo   *repository.MatchRepository
	sessionRepo *repository.SessionRepository
}

// NewService creates the conversation service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		convRepo:    repository.NewConversationRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		sessionRepo: repository.NewSessionRepository(appCtx.DB),
	}
}

// SendMessage inserts a message into the conversation, bumping the counter
// atomically, and publishes MessageSent for the unlock recompute.
//
// Behavior:
//   - Only a participant of an active match may send; the other side is
//     the recipient.
//   - retention_date is stamped at creation and is the sole expiry
//     authority; flagged-at-creation content gets the longer window.
func (s *Service) SendMessage(ctx context.Context, senderID, conversationID uint64, content string, flagged bool) (*db.Message, error) {
	s.appCtx.Logger.Debug("SendMessage called", "sender", senderID, "conversation", conversationID)

	if content == "" {
		return nil, svcErr.Validation("message content is required")
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	m, err := s.matchRepo.GetByID(ctx, conv.MatchID)
	if err != nil {
		return nil, err
	}
	recipientID, ok := otherSide(m, senderID)
	if !ok {
		return nil, svcErr.NotFound("conversation %d not found", conversationID)
	}
	if m.Status != db.MatchActive {
		return nil, svcErr.InvalidState("match %d is %s", m.ID, m.Status)
	}

	now := s.appCtx.Clock.Now()
	msg := &db.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		Flagged:        flagged,
		RetentionDate:  retention.For(s.appCtx.Rules, now, flagged),
		CreatedAt:      now,
	}
	if err := s.messageRepo.CreateWithCount(ctx, msg); err != nil {
		return nil, err
	}

	s.appCtx.Events.Publish(ctx, events.MessageSent{
		MessageID:      msg.ID,
		ConversationID: conversationID,
		MatchID:        m.ID,
		SenderID:       senderID,
	})
	return msg, nil
}

// ListMessages returns conversation history visible to the actor,
// newest-first with cursor pagination.
func (s *Service) ListMessages(ctx context.Context, actorID, conversationID uint64, paginationToken *string, limit int) ([]db.Message, *string, error) {
	if _, err := s.getVisible(ctx, actorID, conversationID); err != nil {
		return nil, nil, err
	}
	return s.messageRepo.List(ctx, conversationID, paginationToken, limit)
}

// MarkRead stamps a message read by its recipient. Idempotent: the first
// read wins and later calls keep the original timestamp.
func (s *Service) MarkRead(ctx context.Context, actorID, messageID uint64) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RecipientID != actorID {
		return svcErr.NotFound("message %d not found", messageID)
	}
	return s.messageRepo.MarkRead(ctx, messageID, s.appCtx.Clock.Now())
}

// GetConversation returns the conversation if the actor participates in
// its match.
func (s *Service) GetConversation(ctx context.Context, actorID, conversationID uint64) (*db.Conversation, error) {
	return s.getVisible(ctx, actorID, conversationID)
}

// HandleMessageSent recomputes unlocks after a committed message write.
func (s *Service) HandleMessageSent(ctx context.Context, e events.Event) {
	ev, ok := e.(events.MessageSent)
	if !ok {
		return
	}
	if err := s.RecomputeUnlocks(ctx, ev.ConversationID); err != nil {
		s.appCtx.Logger.Error("unlock recompute failed", "conversation", ev.ConversationID, "err", err)
	}
}

// HandleSessionCompleted recomputes unlocks after a session reaches
// completed, since the extended-date rule depends on it.
func (s *Service) HandleSessionCompleted(ctx context.Context, e events.Event) {
	ev, ok := e.(events.SessionCompleted)
	if !ok {
		return
	}
	conv, err := s.convRepo.GetByMatchID(ctx, ev.MatchID)
	if err != nil {
		s.appCtx.Logger.Error("unlock recompute failed", "match", ev.MatchID, "err", err)
		return
	}
	if err := s.RecomputeUnlocks(ctx, conv.ID); err != nil {
		s.appCtx.Logger.Error("unlock recompute failed", "conversation", conv.ID, "err", err)
	}
}

// RecomputeUnlocks re-derives all three flags from current totals.
//
// Behavior:
//   - Reads fresh counts, never applies deltas, so concurrent executions
//     from messaging and session completion commute.
//   - Flags only ever go false→true; the repository guard makes the raise
//     idempotent and assigns the unlock event to the flipping call.
func (s *Service) RecomputeUnlocks(ctx context.Context, conversationID uint64) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	rules := s.appCtx.Rules
	if conv.MessageCount >= int64(rules.VideoUnlockMessages) {
		if err := s.raise(ctx, conv, repository.FlagVideoDate); err != nil {
			return err
		}
	}

	if conv.MessageCount >= int64(rules.ExtendedUnlockMessages) {
		done, err := s.sessionRepo.CompletedExists(ctx, conv.MatchID)
		if err != nil {
			return err
		}
		if done {
			if err := s.raise(ctx, conv, repository.FlagExtendedDate); err != nil {
				return err
			}
			if err := s.raise(ctx, conv, repository.FlagHighValueAction); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecountMessages re-derives message_count from surviving rows. Repair
// path for drift detection; normal traffic uses the atomic increment.
func (s *Service) RecountMessages(ctx context.Context, conversationID uint64) error {
	return s.convRepo.RecountMessages(ctx, conversationID)
}

func (s *Service) raise(ctx context.Context, conv *db.Conversation, flag string) error {
	flipped, err := s.convRepo.SetUnlocked(ctx, conv.ID, flag)
	if err != nil {
		return err
	}
	if !flipped {
		return nil
	}
	metrics.RecordUnlock(flag)
	s.appCtx.Events.Publish(ctx, events.UnlockChanged{
		ConversationID: conv.ID,
		MatchID:        conv.MatchID,
		Flag:           flag,
	})
	s.appCtx.Logger.Info("unlock flag raised", "conversation", conv.ID, "flag", flag)
	return nil
}

func (s *Service) getVisible(ctx context.Context, actorID, conversationID uint64) (*db.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	m, err := s.matchRepo.GetByID(ctx, conv.MatchID)
	if err != nil {
		return nil, err
	}
	if _, ok := otherSide(m, actorID); !ok {
		return nil, svcErr.NotFound("conversation %d not found", conversationID)
	}
	return conv, nil
}

// otherSide returns the counterpart of userID in the match, and whether
// userID participates at all.
func otherSide(m *db.Match, userID uint64) (uint64, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	}
	return 0, false
}
