package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/avolkov/photoflow/internal/app"
	"github.com/avolkov/photoflow/internal/cache"
	"github.com/avolkov/photoflow/internal/config"
	"github.com/avolkov/photoflow/internal/logger"
	"github.com/avolkov/photoflow/internal/queue"
	"github.com/avolkov/photoflow/internal/redisholder"
	"github.com/avolkov/photoflow/internal/worker"
)

const defaultConfigFile = "config.json"

func main() {
	file := os.Getenv("PHOTOFLOW_CONFIG")
	if file == "" {
		file = defaultConfigFile
	}

	cfg := config.NewConfig()
	if err := cfg.Read(file); err != nil {
		log.Fatal(err)
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.SentryDSN,
		Environment: cfg.Sentry.Environment,
		Release:     "v1",
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	zl, err := logger.New(cfg.Sentry.Environment)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := app.NewMediaStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("build media store", zap.Error(err))
	}

	// The broker must be reachable before consuming; a refused connection is
	// fatal and left to process supervision to retry.
	holder, err := redisholder.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("connect to redis", zap.Error(err))
	}
	defer holder.Close()

	rc := holder.Get()
	redisCache := cache.NewCache("photoflow:media", rc)

	w := worker.New(store, redisCache, cfg.Worker.ThumbnailSize, zl)
	consumer := queue.NewConsumer(rc, cfg.Queue, zl)

	if err := consumer.Start(ctx, w.Handle); err != nil && ctx.Err() == nil {
		zl.Fatal("consumer stopped", zap.Error(err))
	}
	zl.Info("worker stopped")
}
