package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/clock"
	"github.com/harmonia-app/matchcore/internal/config"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/logger"
	"github.com/harmonia-app/matchcore/internal/service/access"
)

var testStart = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*app.AppContext, *clock.Manual) {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db.Models()...))

	clk := clock.NewManual(testStart)
	return app.New(database, nil, logger.L(), clk, events.NewDispatcher(), config.DefaultDomain()), clk
}

func monthSub(ownerID uint64, tier string, startsAt time.Time) *db.Subscription {
	return &db.Subscription{
		OwnerID:      ownerID,
		Tier:         tier,
		Status:       db.SubscriptionActive,
		BillingCycle: "monthly",
		StartsAt:     startsAt,
		ExpiresAt:    startsAt.Add(30 * 24 * time.Hour),
	}
}

func TestFreeTierByDefault(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	tier, err := svc.ResolveTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.TierFree, tier)

	ok, err := svc.HasAccess(ctx, 1, access.FeatureLiveVideoDating)
	require.NoError(t, err)
	assert.False(t, ok)

	// free-tier features stay available without any subscription row
	ok, err = svc.HasAccess(ctx, 1, access.FeatureCoaching)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActivateGrantsTierFeatures(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierDating, testStart)))

	tier, err := svc.ResolveTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.TierDating, tier)

	ok, err := svc.HasAccess(ctx, 1, access.FeatureLiveVideoDating)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAccess(ctx, 1, access.FeatureSkillsTraining)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBundleCoversBothSides(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierBundle, testStart)))

	for _, feature := range []string{
		access.FeatureLiveVideoDating,
		access.FeatureUnlimitedMatches,
		access.FeatureSkillsTraining,
		access.FeatureCoaching,
		access.FeatureRelationshipMode,
	} {
		ok, err := svc.HasAccess(ctx, 1, feature)
		require.NoError(t, err)
		assert.True(t, ok, feature)
	}
}

func TestActivateReplacesPreviousActive(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierDating, testStart)))
	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierBundle, testStart)))

	tier, err := svc.ResolveTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.TierBundle, tier)

	var active int64
	require.NoError(t, appCtx.DB.Model(&db.Subscription{}).
		Where("owner_id = ? AND status = ?", 1, db.SubscriptionActive).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestActivateValidation(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	err := svc.Activate(ctx, monthSub(1, "platinum", testStart))
	assert.True(t, svcErr.IsValidation(err))

	empty := monthSub(1, db.TierDating, testStart)
	empty.ExpiresAt = empty.StartsAt
	err = svc.Activate(ctx, empty)
	assert.True(t, svcErr.IsValidation(err))
}

func TestUnknownFeatureRejected(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := access.NewService(appCtx)

	_, err := svc.HasAccess(context.Background(), 1, "teleportation")
	assert.True(t, svcErr.IsValidation(err))
}

func TestReconcileExpired(t *testing.T) {
	appCtx, clk := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierDating, testStart)))
	require.NoError(t, svc.Activate(ctx, monthSub(2, db.TierBundle, testStart)))

	n, err := svc.ReconcileExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	clk.Advance(31 * 24 * time.Hour)
	n, err = svc.ReconcileExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	tier, err := svc.ResolveTier(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.TierFree, tier)

	// repeat run finds nothing left to flip
	n, err = svc.ReconcileExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestExpiredWindowFallsBackToFree(t *testing.T) {
	appCtx, clk := newTestApp(t)
	svc := access.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.Activate(ctx, monthSub(1, db.TierDating, testStart)))
	clk.Advance(31 * 24 * time.Hour)

	// even before reconciliation runs, the window bound alone denies access
	ok, err := svc.HasAccess(ctx, 1, access.FeatureLiveVideoDating)
	require.NoError(t, err)
	assert.False(t, ok)
}
