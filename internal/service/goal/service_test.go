package goal_test

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
	"github.com/harmonia-app/matchcore/internal/service/goal"
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

func seedActiveMatch(t *testing.T, appCtx *app.AppContext, a, b uint64) *db.Match {
	t.Helper()
	userA, userB := db.CanonicalPair(a, b)
	m := db.Match{UserAID: userA, UserBID: userB, ScoreAB: 90, ScoreBA: 85, Compatibility: 88, Status: db.MatchActive}
	require.NoError(t, appCtx.DB.Create(&m).Error)
	return &m
}

func validInput() goal.Input {
	return goal.Input{
		Title:               "listen more",
		Specific:            "ask one follow-up question per conversation",
		Measurable:          "count of follow-up questions",
		Milestones:          []string{"first week", "first month"},
		CompletedMilestones: []bool{false, false},
	}
}

func TestCreateAndGetOwn(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)
	assert.Equal(t, db.GoalActive, g.Status)

	got, err := svc.Get(ctx, 1, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "listen more", got.Title)
	assert.Equal(t, []string{"first week", "first month"}, got.Milestones)
}

func TestMilestoneParityEnforced(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	in := validInput()
	in.CompletedMilestones = []bool{true}
	_, err := svc.Create(ctx, 1, in)
	assert.True(t, svcErr.IsValidation(err))

	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	in = validInput()
	in.Milestones = []string{"only one"}
	_, err = svc.Update(ctx, 1, g.ID, in)
	assert.True(t, svcErr.IsValidation(err))
}

func TestInputValidation(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	in := validInput()
	in.Title = ""
	_, err := svc.Create(ctx, 1, in)
	assert.True(t, svcErr.IsValidation(err))

	in = validInput()
	in.Progress = 120
	_, err = svc.Create(ctx, 1, in)
	assert.True(t, svcErr.IsValidation(err))
}

func TestSetCompleted(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	g, err := svc.SetCompleted(ctx, 1, created.ID, true)
	require.NoError(t, err)
	assert.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, testStart, g.CompletedAt.UTC())
	assert.Equal(t, 100, g.Progress)

	// un-completing clears the stamp but keeps progress where it was
	g, err = svc.SetCompleted(ctx, 1, created.ID, false)
	require.NoError(t, err)
	assert.False(t, g.IsCompleted)
	assert.Nil(t, g.CompletedAt)
	assert.Equal(t, 100, g.Progress)
}

func TestSetStatus(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, 1, g.ID, db.GoalPaused))
	got, err := svc.Get(ctx, 1, g.ID)
	require.NoError(t, err)
	assert.Equal(t, db.GoalPaused, got.Status)

	err = svc.SetStatus(ctx, 1, g.ID, "abandoned")
	assert.True(t, svcErr.IsValidation(err))
}

func TestShareRequiresActiveMatch(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	err = svc.Share(ctx, 1, g.ID, 2)
	assert.True(t, svcErr.IsInvalidState(err))

	seedActiveMatch(t, appCtx, 1, 2)
	require.NoError(t, svc.Share(ctx, 1, g.ID, 2))

	got, err := svc.Get(ctx, 2, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
}

func TestPartnerVisibilityLapsesWithMatch(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	m := seedActiveMatch(t, appCtx, 1, 2)
	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Share(ctx, 1, g.ID, 2))

	_, err = svc.Get(ctx, 2, g.ID)
	require.NoError(t, err)

	// archiving the match suspends partner access without touching the goal
	require.NoError(t, appCtx.DB.Model(m).Update("status", db.MatchArchived).Error)
	_, err = svc.Get(ctx, 2, g.ID)
	assert.True(t, svcErr.IsNotFound(err))

	// the owner still sees it
	_, err = svc.Get(ctx, 1, g.ID)
	require.NoError(t, err)
}

func TestUnshareRevokes(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	seedActiveMatch(t, appCtx, 1, 2)
	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Share(ctx, 1, g.ID, 2))
	require.NoError(t, svc.Unshare(ctx, 1, g.ID))

	_, err = svc.Get(ctx, 2, g.ID)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestNonOwnerCannotWrite(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, g.ID, validInput())
	assert.True(t, svcErr.IsNotFound(err))
	_, err = svc.SetCompleted(ctx, 2, g.ID, true)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestListOwn(t *testing.T) {
	appCtx, _ := newTestApp(t)
	svc := goal.NewService(appCtx)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, 1, validInput())
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, 2, validInput())
	require.NoError(t, err)

	goals, err := svc.ListOwn(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, goals, 3)
}
