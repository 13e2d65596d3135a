package rating

import (
	"context"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/metrics"
	"github.com/harmonia-app/matchcore/internal/repository"
	"github.com/harmonia-app/matchcore/internal/scoring"
)

// Service records immutable compatibility ratings. Scoring happens at
// write time with the rater's weight vector captured on the row, so later
// weight changes never retroactively alter history.
type Service struct {
	appCtx     *app.AppContext
	ratingRepo *repository.RatingRepository
}

// NewService creates the rating service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		ratingRepo: repository.NewRatingRepository(appCtx.DB),
	}
}

// RecordRating validates, scores, and persists raterID's rating of ratedID,
// then publishes RatingRecorded so the match formulator can react.
//
// Behavior:
//   - Sub-scores and the weight vector are validated synchronously; bad
//     input never gets silently corrected.
//   - A duplicate (rater, rated) pair is a conflict.
//   - Weight provenance is the caller's concern: the vector arrives opaque
//     from the personalization collaborator.
func (s *Service) RecordRating(
	ctx context.Context,
	raterID, ratedID uint64,
	scores [4]int,
	weights [4]float64,
) (*db.Rating, error) {
	s.appCtx.Logger.Debug("RecordRating called", "rater", raterID, "rated", ratedID)

	if raterID == 0 || ratedID == 0 {
		return nil, svcErr.Validation("rater and rated ids are required")
	}
	if raterID == ratedID {
		return nil, svcErr.Validation("cannot rate yourself")
	}

	overall, err := scoring.Compute(scores, weights)
	if err != nil {
		return nil, err
	}

	r := &db.Rating{
		RaterID:             raterID,
		RatedID:             ratedID,
		Communication:       scores[0],
		Chemistry:           scores[1],
		Values:              scores[2],
		Lifestyle:           scores[3],
		WeightCommunication: weights[0],
		WeightChemistry:     weights[1],
		WeightValues:        weights[2],
		WeightLifestyle:     weights[3],
		Overall:             overall,
	}
	if err := s.ratingRepo.Create(ctx, r); err != nil {
		s.appCtx.Logger.Error("rating insert failed", "rater", raterID, "rated", ratedID, "err", err)
		return nil, err
	}

	metrics.RecordRating(overall)

	s.appCtx.Events.Publish(ctx, events.RatingRecorded{
		RaterID: raterID,
		RatedID: ratedID,
		Overall: overall,
	})

	s.appCtx.Logger.Info("rating recorded", "rater", raterID, "rated", ratedID, "overall", overall)
	return r, nil
}

// GetRating returns the actor's own rating of ratedID. Anything the actor
// did not author reads as not found.
func (s *Service) GetRating(ctx context.Context, actorID, ratedID uint64) (*db.Rating, error) {
	r, err := s.ratingRepo.Get(ctx, actorID, ratedID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, svcErr.NotFound("rating of %d not found", ratedID)
	}
	return r, nil
}
