package access

import (
	"context"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Features gated by subscription tier.
const (
	FeatureLiveVideoDating  = "live-video-dating"
	FeatureUnlimitedMatches = "unlimited-matches"
	FeatureSkillsTraining   = "skills-training"
	FeatureCoaching         = "coaching"
	FeatureRelationshipMode = "relationship-mode"
)

// featureTiers is the static feature → allowed-tier table. Free covers
// everything listed under it for every tier.
var featureTiers = map[string]map[string]bool{
	FeatureLiveVideoDating:  {db.TierDating: true, db.TierBundle: true},
	FeatureUnlimitedMatches: {db.TierDating: true, db.TierBundle: true},
	FeatureSkillsTraining:   {db.TierTraining: true, db.TierBundle: true},
	FeatureCoaching:         {db.TierFree: true, db.TierDating: true, db.TierTraining: true, db.TierBundle: true},
	FeatureRelationshipMode: {db.TierFree: true, db.TierDating: true, db.TierTraining: true, db.TierBundle: true},
}

// Service resolves feature availability from subscription state. No
// caching beyond the single request: tier state can change mid-session.
type Service struct {
	appCtx  *app.AppContext
	subRepo *repository.SubscriptionRepository
}

// NewService creates the access service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		subRepo: repository.NewSubscriptionRepository(appCtx.DB),
	}
}

// ResolveTier returns the actor's effective tier: the most recent active
// subscription inside its validity window, defaulting to free.
func (s *Service) ResolveTier(ctx context.Context, actorID uint64) (string, error) {
	sub, err := s.subRepo.LatestActive(ctx, actorID, s.appCtx.Clock.Now())
	if err != nil {
		return "", err
	}
	if sub == nil {
		return db.TierFree, nil
	}
	return sub.Tier, nil
}

// HasAccess reports whether the actor's current tier grants the feature.
func (s *Service) HasAccess(ctx context.Context, actorID uint64, feature string) (bool, error) {
	allowed, ok := featureTiers[feature]
	if !ok {
		return false, svcErr.Validation("unknown feature %q", feature)
	}
	tier, err := s.ResolveTier(ctx, actorID)
	if err != nil {
		return false, err
	}
	return allowed[tier], nil
}

// Activate makes sub the actor's single active subscription, expiring any
// previous active row in the same transaction.
func (s *Service) Activate(ctx context.Context, sub *db.Subscription) error {
	switch sub.Tier {
	case db.TierFree, db.TierDating, db.TierTraining, db.TierBundle:
	default:
		return svcErr.Validation("unknown tier %q", sub.Tier)
	}
	if !sub.ExpiresAt.After(sub.StartsAt) {
		return svcErr.Validation("subscription window is empty")
	}
	return s.subRepo.Activate(ctx, sub)
}

// ReconcileExpired flips active subscriptions whose window has closed.
// Invoked by the scheduling collaborator; repeat-safe.
func (s *Service) ReconcileExpired(ctx context.Context) (int64, error) {
	n, err := s.subRepo.ExpireDue(ctx, s.appCtx.Clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.appCtx.Logger.Info("subscriptions reconciled", "expired", n)
	}
	return n, nil
}
