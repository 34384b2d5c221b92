package main

import (
	"context"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/logger"
	"github.com/Zalthoryn/DatingBot/internal/rating"
)

// One-shot batch recompute of every profile's rating. Run it from cron or
// after bulk data changes; the services keep per-profile ratings fresh on
// their own as interactions happen.
func main() {
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)
	engine := rating.NewEngine(appCtx)

	updated, failed, err := engine.RecomputeAll(context.Background())
	if err != nil {
		log.Error("rating recompute failed", "err", err)
		return
	}

	log.Info("rating recompute finished", "updated", updated, "failed", failed)
}
