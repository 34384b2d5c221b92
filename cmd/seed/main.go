package main

import (
	"context"
	"log"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/logger"
	"github.com/Zalthoryn/DatingBot/internal/rating"
)

func main() {
	// Load configuration
	cfg := config.New()

	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	// Seeded ratings are zeroed; compute real scores right away.
	appCtx := app.New(cfg, database, cache.NewRedisCache(cfg), logger.L())
	engine := rating.NewEngine(appCtx)
	updated, failed, err := engine.RecomputeAll(context.Background())
	if err != nil {
		log.Fatalf("failed to recompute ratings: %v", err)
	}

	log.Printf("Seeding completed. Ratings updated: %d, failed: %d", updated, failed)
}
