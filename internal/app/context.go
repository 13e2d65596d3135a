package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/cache"
	"github.com/harmonia-app/matchcore/internal/clock"
	"github.com/harmonia-app/matchcore/internal/config"
	"github.com/harmonia-app/matchcore/internal/events"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Clock, event bus)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Clock      clock.Clock
	Events     *events.Dispatcher
	Rules      config.Domain
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, clk clock.Clock, bus *events.Dispatcher, rules config.Domain) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Clock:      clk,
		Events:     bus,
		Rules:      rules,
	}
}
