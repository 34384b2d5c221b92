package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/logger"
	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/metrics"
	"github.com/Zalthoryn/DatingBot/internal/notify"
	"github.com/Zalthoryn/DatingBot/internal/photostore"
	"github.com/Zalthoryn/DatingBot/internal/telegram"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
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

	store, err := photostore.New(context.Background(), cfg)
	if err != nil {
		log.Error("failed to init photo store", "err", err)
		return
	}

	sender, err := telegram.NewSender(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to init telegram sender", "err", err)
		return
	}

	natsClient, err := messaging.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to nats", "err", err)
		return
	}
	defer natsClient.Close()

	worker := notify.NewWorker(appCtx, store, sender)
	if err := worker.Start(natsClient); err != nil {
		log.Error("failed to start notification worker", "err", err)
		return
	}

	go func() {
		http.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	log.Info("notifier running", "nats_url", cfg.NATS.URL, "metrics_addr", cfg.Metrics.Addr)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())
}
