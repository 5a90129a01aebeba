package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/avolkov/photoflow/internal/app"
	"github.com/avolkov/photoflow/internal/config"
	"github.com/avolkov/photoflow/internal/logger"
)

const defaultConfigFile = "config.json"

func initSentry(cfg *config.SentryConfig, version string) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
}

func main() {
	file := os.Getenv("PHOTOFLOW_CONFIG")
	if file == "" {
		file = defaultConfigFile
	}

	cfg := config.NewConfig()
	if err := cfg.Read(file); err != nil {
		log.Fatal(err)
	}

	if err := initSentry(&cfg.Sentry, "v1"); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	// Flush buffered events before the program terminates.
	defer sentry.Flush(2 * time.Second)

	zl, err := logger.New(cfg.Sentry.Environment)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	a, err := app.New(context.Background(), cfg, zl)
	if err != nil {
		log.Fatal(err)
	}

	if err := a.Run(); err != nil {
		log.Fatal(err)
	}
}
