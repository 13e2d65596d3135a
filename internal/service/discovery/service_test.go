package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/cache"
	"github.com/harmonia-app/matchcore/internal/clock"
	"github.com/harmonia-app/matchcore/internal/config"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/logger"
	"github.com/harmonia-app/matchcore/internal/service/discovery"
)

var testStart = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, redisCache *cache.RedisCache, limit int) (*app.AppContext, *clock.Manual) {
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

	rules := config.DefaultDomain()
	rules.DailySwipeLimit = limit

	clk := clock.NewManual(testStart)
	return app.New(database, redisCache, logger.L(), clk, events.NewDispatcher(), rules), clk
}

func newMiniredisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisCacheFromClient(client), mr
}

func TestRegisterSwipe_CapEnforced(t *testing.T) {
	redisCache, _ := newMiniredisCache(t)
	appCtx, _ := newTestApp(t, redisCache, 3)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RegisterSwipe(ctx, 1))
	}
	err := svc.RegisterSwipe(ctx, 1)
	assert.True(t, svcErr.IsValidation(err))

	used, err := svc.SwipesUsed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

func TestRegisterSwipe_WithoutRedis(t *testing.T) {
	appCtx, _ := newTestApp(t, nil, 2)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	err := svc.RegisterSwipe(ctx, 1)
	assert.True(t, svcErr.IsValidation(err))
}

func TestRegisterSwipe_RedisOutageDegradesToDB(t *testing.T) {
	redisCache, mr := newMiniredisCache(t)
	appCtx, _ := newTestApp(t, redisCache, 2)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	mr.Close()

	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	err := svc.RegisterSwipe(ctx, 1)
	assert.True(t, svcErr.IsValidation(err))
}

func TestRegisterSwipe_AllowanceResetsNextDay(t *testing.T) {
	appCtx, clk := newTestApp(t, nil, 1)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	err := svc.RegisterSwipe(ctx, 1)
	assert.True(t, svcErr.IsValidation(err))

	clk.Advance(24 * time.Hour)
	require.NoError(t, svc.RegisterSwipe(ctx, 1))

	used, err := svc.SwipesUsed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestRegisterSwipe_PerActorAllowance(t *testing.T) {
	appCtx, _ := newTestApp(t, nil, 1)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	require.NoError(t, svc.RegisterSwipe(ctx, 2))

	err := svc.RegisterSwipe(ctx, 1)
	assert.True(t, svcErr.IsValidation(err))
}

func TestRegisterSwipe_RedisRefusalRollsBackCounter(t *testing.T) {
	redisCache, _ := newMiniredisCache(t)
	appCtx, clk := newTestApp(t, redisCache, 2)
	svc := discovery.NewService(appCtx)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	require.NoError(t, svc.RegisterSwipe(ctx, 1))
	for i := 0; i < 3; i++ {
		err := svc.RegisterSwipe(ctx, 1)
		assert.True(t, svcErr.IsValidation(err))
	}

	// rejected attempts must not inflate the fast-path counter
	day := clk.Now().UTC().Format("2006-01-02")
	n, err := redisCache.GetSwipeCount(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRegisterSwipe_RequiresActor(t *testing.T) {
	appCtx, _ := newTestApp(t, nil, 1)
	svc := discovery.NewService(appCtx)

	err := svc.RegisterSwipe(context.Background(), 0)
	assert.True(t, svcErr.IsValidation(err))
}
