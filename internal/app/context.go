package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
)

// AppContext holds shared worker dependencies (config, DB, Redis, logger).
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
	}
}
