package discovery

import (
	"context"
	"time"

	"github.com/harmonia-app/matchcore/internal/app"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Service enforces the daily swipe cap. Redis is the fast path; the
// guarded DB counter is the authority.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
}

// NewService creates the discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
	}
}

// RegisterSwipe consumes one swipe from the actor's daily allowance.
//
// Behavior:
//   - The redis counter rejects over-limit traffic cheaply; a redis
//     outage degrades to the DB path rather than failing the swipe.
//   - The DB increment is guarded (count < limit), so the cap holds even
//     when the caches disagree or writes race.
func (s *Service) RegisterSwipe(ctx context.Context, actorID uint64) error {
	if actorID == 0 {
		return svcErr.Validation("actor id is required")
	}

	now := s.appCtx.Clock.Now()
	day := now.UTC().Format("2006-01-02")
	limit := s.appCtx.Rules.DailySwipeLimit

	cached := false
	if s.appCtx.RedisCache != nil {
		n, err := s.appCtx.RedisCache.IncrSwipeCount(ctx, actorID, day, untilMidnight(now))
		if err == nil {
			cached = true
			if n > int64(limit) {
				_ = s.appCtx.RedisCache.DecrSwipeCount(ctx, actorID, day)
				return svcErr.Validation("daily swipe limit of %d reached", limit)
			}
		}
	}

	ok, err := s.swipeRepo.TryIncrement(ctx, actorID, day, limit)
	if err != nil {
		return err
	}
	if !ok {
		if cached {
			_ = s.appCtx.RedisCache.DecrSwipeCount(ctx, actorID, day)
		}
		return svcErr.Validation("daily swipe limit of %d reached", limit)
	}
	return nil
}

// SwipesUsed returns today's authoritative counter value for the actor.
func (s *Service) SwipesUsed(ctx context.Context, actorID uint64) (int, error) {
	day := s.appCtx.Clock.Now().UTC().Format("2006-01-02")
	return s.swipeRepo.Count(ctx, actorID, day)
}

// untilMidnight returns the duration to the next UTC midnight, used as
// the redis key TTL so stale day counters expire on their own.
func untilMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
