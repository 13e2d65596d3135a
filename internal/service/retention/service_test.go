package retention_test

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
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/logger"
	"github.com/harmonia-app/matchcore/internal/service/conversation"
	"github.com/harmonia-app/matchcore/internal/service/retention"
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

func seedConversation(t *testing.T, appCtx *app.AppContext) *db.Conversation {
	t.Helper()
	m := db.Match{UserAID: 1, UserBID: 2, ScoreAB: 90, ScoreBA: 85, Compatibility: 88, Status: db.MatchActive}
	require.NoError(t, appCtx.DB.Create(&m).Error)
	conv := db.Conversation{MatchID: m.ID}
	require.NoError(t, appCtx.DB.Create(&conv).Error)
	return &conv
}

func TestRetentionFor(t *testing.T) {
	rules := config.DefaultDomain()
	created := testStart

	assert.Equal(t, created.Add(90*24*time.Hour), retention.For(rules, created, false))
	assert.Equal(t, created.Add(180*24*time.Hour), retention.For(rules, created, true))
}

func TestSendMessage_StampsRetentionAtCreation(t *testing.T) {
	appCtx, _ := newTestApp(t)
	convSvc := conversation.NewService(appCtx)
	ctx := context.Background()
	conv := seedConversation(t, appCtx)

	plain, err := convSvc.SendMessage(ctx, 1, conv.ID, "hello", false)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(90*24*time.Hour).Unix(), plain.RetentionDate.Unix())

	flagged, err := convSvc.SendMessage(ctx, 1, conv.ID, "reported at creation", true)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(180*24*time.Hour).Unix(), flagged.RetentionDate.Unix())
}

func TestFlagMessage_ExtendsFromCreationTime(t *testing.T) {
	appCtx, clk := newTestApp(t)
	convSvc := conversation.NewService(appCtx)
	svc := retention.NewService(appCtx)
	ctx := context.Background()
	conv := seedConversation(t, appCtx)

	msg, err := convSvc.SendMessage(ctx, 1, conv.ID, "hello", false)
	require.NoError(t, err)

	clk.Advance(30 * 24 * time.Hour)
	require.NoError(t, svc.FlagMessage(ctx, msg.ID))

	var fresh db.Message
	require.NoError(t, appCtx.DB.First(&fresh, msg.ID).Error)
	assert.True(t, fresh.Flagged)
	// window anchors on creation, not on the moment of flagging
	assert.Equal(t, testStart.Add(180*24*time.Hour).Unix(), fresh.RetentionDate.Unix())

	// a second flagging cannot shorten anything
	require.NoError(t, svc.FlagMessage(ctx, msg.ID))
	require.NoError(t, appCtx.DB.First(&fresh, msg.ID).Error)
	assert.Equal(t, testStart.Add(180*24*time.Hour).Unix(), fresh.RetentionDate.Unix())
}

func TestSweepExpired_DeletesOnlyExpired(t *testing.T) {
	appCtx, clk := newTestApp(t)
	convSvc := conversation.NewService(appCtx)
	svc := retention.NewService(appCtx)
	ctx := context.Background()
	conv := seedConversation(t, appCtx)

	old, err := convSvc.SendMessage(ctx, 1, conv.ID, "old", false)
	require.NoError(t, err)

	clk.Advance(60 * 24 * time.Hour)
	fresh, err := convSvc.SendMessage(ctx, 2, conv.ID, "fresh", false)
	require.NoError(t, err)

	// before anything expires the sweep is a clean no-op
	report, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.MessagesDeleted)

	// 95 days after the first message: only it has expired
	clk.Advance(35 * 24 * time.Hour)
	report, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.MessagesDeleted)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	var survivor db.Message
	require.NoError(t, appCtx.DB.First(&survivor, fresh.ID).Error)
	assert.Error(t, appCtx.DB.First(&db.Message{}, old.ID).Error)

	// idempotent: the repeat run deletes nothing and still succeeds
	report, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.MessagesDeleted)
}

func TestSweepExpired_ClearsRecordingsAndNotifiesImminent(t *testing.T) {
	appCtx, clk := newTestApp(t)
	convSvc := conversation.NewService(appCtx)
	svc := retention.NewService(appCtx)
	ctx := context.Background()
	conv := seedConversation(t, appCtx)

	var imminent []events.RetentionImminent
	appCtx.Events.Subscribe(events.RetentionImminent{}.Name(), func(ctx context.Context, e events.Event) {
		imminent = append(imminent, e.(events.RetentionImminent))
	})

	msg, err := convSvc.SendMessage(ctx, 1, conv.ID, "soon to expire", false)
	require.NoError(t, err)

	recID := "rec-1"
	expiredAt := testStart.Add(24 * time.Hour)
	sess := db.VideoSession{
		MatchID: conv.MatchID, ParticipantA: 1, ParticipantB: 2,
		Type: db.SessionShort, Status: db.SessionCompleted, RoomID: "room",
		ScheduledAt: testStart, RecordingID: &recID, RecordingRetentionDate: &expiredAt,
	}
	require.NoError(t, appCtx.DB.Create(&sess).Error)

	// 87 days in: the message expires within the 7-day horizon
	clk.Advance(87 * 24 * time.Hour)
	report, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.MessagesDeleted)
	assert.Equal(t, int64(1), report.RecordingsCleared)
	require.Len(t, imminent, 1)
	assert.Equal(t, msg.ID, imminent[0].MessageID)

	var cleared db.VideoSession
	require.NoError(t, appCtx.DB.First(&cleared, sess.ID).Error)
	assert.Nil(t, cleared.RecordingID)
	assert.Nil(t, cleared.RecordingRetentionDate)
}
