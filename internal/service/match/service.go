package match

import (
	"context"
	"math"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/metrics"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Service formulates matches from mutual high-confidence ratings and owns
// match status transitions.
type Service struct {
	appCtx     *app.AppContext
	ratingRepo *repository.RatingRepository
	matchRepo  *repository.MatchRepository
	convRepo   *repository.ConversationRepository
}

// NewService creates the match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		ratingRepo: repository.NewRatingRepository(appCtx.DB),
		matchRepo:  repository.NewMatchRepository(appCtx.DB),
		convRepo:   repository.NewConversationRepository(appCtx.DB),
	}
}

// HandleRatingRecorded reacts to every committed rating by attempting
// match formulation for the pair.
func (s *Service) HandleRatingRecorded(ctx context.Context, e events.Event) {
	ev, ok := e.(events.RatingRecorded)
	if !ok {
		return
	}
	if _, err := s.CreateOrRefreshMatch(ctx, ev.RaterID, ev.RatedID); err != nil {
		s.appCtx.Logger.Error("match formulation failed", "rater", ev.RaterID, "rated", ev.RatedID, "err", err)
	}
}

// CreateOrRefreshMatch checks whether both directions now qualify and, if
// so, creates the canonical match for the pair.
//
// Behavior:
//   - Qualification: both overalls ≥ the configured threshold.
//   - Caller-idempotent: when a match already exists (including losing a
//     creation race) the existing match is returned, never an error.
//   - Returns nil without error when the pair does not qualify yet.
//   - The MatchCreated event and its conversation row are produced only by
//     the call that actually inserted the match.
func (s *Service) CreateOrRefreshMatch(ctx context.Context, raterID, ratedID uint64) (*db.Match, error) {
	forward, err := s.ratingRepo.Get(ctx, raterID, ratedID)
	if err != nil {
		return nil, err
	}
	reverse, err := s.ratingRepo.Get(ctx, ratedID, raterID)
	if err != nil {
		return nil, err
	}

	threshold := s.appCtx.Rules.MatchThreshold
	if forward == nil || reverse == nil || forward.Overall < threshold || reverse.Overall < threshold {
		return nil, nil
	}

	lo, hi := db.CanonicalPair(raterID, ratedID)
	scoreAB, scoreBA := forward.Overall, reverse.Overall
	if forward.RaterID != lo {
		scoreAB, scoreBA = reverse.Overall, forward.Overall
	}

	candidate := &db.Match{
		UserAID:       lo,
		UserBID:       hi,
		ScoreAB:       scoreAB,
		ScoreBA:       scoreBA,
		Compatibility: int(math.Round(float64(scoreAB+scoreBA) / 2)),
		Status:        db.MatchActive,
	}

	m, created, err := s.matchRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !created {
		return m, nil
	}

	if _, err := s.convRepo.CreateForMatch(ctx, m.ID); err != nil {
		return nil, err
	}

	metrics.RecordMatch()
	s.appCtx.Events.Publish(ctx, events.MatchCreated{
		MatchID:       m.ID,
		UserAID:       m.UserAID,
		UserBID:       m.UserBID,
		Compatibility: m.Compatibility,
	})

	s.appCtx.Logger.Info("match created", "match_id", m.ID, "user_a", m.UserAID, "user_b", m.UserBID, "compatibility", m.Compatibility)
	return m, nil
}

// GetMatch returns a match visible to the actor.
func (s *Service) GetMatch(ctx context.Context, actorID, matchID uint64) (*db.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.UserAID != actorID && m.UserBID != actorID {
		return nil, svcErr.NotFound("match %d not found", matchID)
	}
	return m, nil
}

// Archive moves an active match to archived.
func (s *Service) Archive(ctx context.Context, actorID, matchID uint64) error {
	return s.transition(ctx, actorID, matchID, db.MatchActive, db.MatchArchived)
}

// Block moves an active or archived match to blocked. Blocked matches deny
// goal sharing and partner reads.
func (s *Service) Block(ctx context.Context, actorID, matchID uint64) error {
	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return err
	}
	if m.Status == db.MatchBlocked {
		return svcErr.InvalidState("match %d is already blocked", matchID)
	}
	moved, err := s.matchRepo.UpdateStatus(ctx, matchID, m.Status, db.MatchBlocked)
	if err != nil {
		return err
	}
	if !moved {
		return svcErr.InvalidState("match %d changed state concurrently", matchID)
	}
	return nil
}

// Unblock moves a blocked match back to active, restoring messaging and
// goal visibility.
func (s *Service) Unblock(ctx context.Context, actorID, matchID uint64) error {
	return s.transition(ctx, actorID, matchID, db.MatchBlocked, db.MatchActive)
}

func (s *Service) transition(ctx context.Context, actorID, matchID uint64, from, to string) error {
	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return err
	}
	if m.Status != from {
		return svcErr.InvalidState("match %d is %s, expected %s", matchID, m.Status, from)
	}
	moved, err := s.matchRepo.UpdateStatus(ctx, matchID, from, to)
	if err != nil {
		return err
	}
	if !moved {
		return svcErr.InvalidState("match %d changed state concurrently", matchID)
	}
	return nil
}
