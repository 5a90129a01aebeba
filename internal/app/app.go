package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/photoflow/cmd/migrate"
	"github.com/avolkov/photoflow/internal/blobstore"
	blobfs "github.com/avolkov/photoflow/internal/blobstore/fs"
	blobmemory "github.com/avolkov/photoflow/internal/blobstore/memory"
	blobs3 "github.com/avolkov/photoflow/internal/blobstore/s3"
	"github.com/avolkov/photoflow/internal/cache"
	"github.com/avolkov/photoflow/internal/config"
	"github.com/avolkov/photoflow/internal/mediastore"
	"github.com/avolkov/photoflow/internal/queue"
	"github.com/avolkov/photoflow/internal/redisholder"
	"github.com/avolkov/photoflow/internal/repository"
	repomemory "github.com/avolkov/photoflow/internal/repository/memory"
	repopostgres "github.com/avolkov/photoflow/internal/repository/postgres"
	"github.com/avolkov/photoflow/internal/transport/handler"
	"github.com/avolkov/photoflow/internal/transport/router"
	use_case "github.com/avolkov/photoflow/internal/use-case"
)

type App struct {
	HTTPServer *http.Server
	log        *zap.Logger
}

// NewMediaStore builds the object store from config: the blob backend plus
// the metadata repository. Shared by the API server and the worker.
func NewMediaStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*mediastore.Store, error) {
	var blobs blobstore.Store
	var err error
	switch cfg.Storage.Backend {
	case "fs":
		blobs, err = blobfs.New(cfg.Storage.FS.BaseDir)
	case "s3":
		blobs, err = blobs3.New(ctx, &cfg.Storage.S3)
	case "memory":
		blobs = blobmemory.New()
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	var repo repository.MediaRepository
	if cfg.Database.DSN != "" {
		if err := migrate.Migrate(cfg.Database.DSN, migrate.Migrations); err != nil {
			return nil, err
		}
		repo, err = repopostgres.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("no database DSN configured; using in-memory metadata repository")
		repo = repomemory.New()
	}

	return mediastore.New(blobs, repo), nil
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := NewMediaStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	holder, err := redisholder.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rc := holder.Get()
	redisCache := cache.NewCache("photoflow:media", rc)
	producer := queue.NewProducer(rc, cfg.Queue.Stream, cfg.Queue.MaxLen)

	uc := use_case.New(store, producer, redisCache, cfg.Worker.CacheTTLSecs, log)

	h := handler.New(uc, cfg)
	r := router.NewRouter(h, []byte(cfg.Auth.JWTSecret))

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HTTPServer: s,
		log:        log,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", zap.String("addr", a.HTTPServer.Addr))
		errCh <- a.HTTPServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
