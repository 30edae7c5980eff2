package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/notelab/notebook-backend/internal/clients/engine"
	"github.com/notelab/notebook-backend/internal/clients/gcp"
	"github.com/notelab/notebook-backend/internal/db"
	apphttp "github.com/notelab/notebook-backend/internal/http"
	"github.com/notelab/notebook-backend/internal/http/middleware"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/realtime/bus"
	"github.com/notelab/notebook-backend/internal/services"
	"github.com/notelab/notebook-backend/internal/utils"
)

type App struct {
	log      *logger.Logger
	server   *apphttp.Server
	sweeper  *services.StaleSourceSweeper
	eventBus bus.Bus
	cancel   context.CancelFunc
}

func New() (*App, error) {
	mode := utils.GetEnv("APP_MODE", "dev", nil)
	log, err := logger.New(mode)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, err
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, err
	}
	gdb := pg.DB()

	engineClient, err := engine.NewClient(log)
	if err != nil {
		return nil, err
	}

	var bucket gcp.BucketService
	if utils.GetEnv("DOCUMENT_GCS_BUCKET_NAME", "", log) != "" {
		bucket, err = gcp.NewBucketService(log)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("GCS buckets not configured; file storage disabled")
	}

	hub := realtime.NewSSEHub(log)
	var eventBus bus.Bus
	if utils.GetEnv("REDIS_ADDR", "", log) != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			return nil, err
		}
	} else {
		eventBus = bus.NewLocalBus()
	}

	events := services.NewEventPublisher(eventBus, log)
	r := wireRepos(gdb, log)
	s := wireServices(gdb, r, engineClient, bucket, events, log)
	h := wireHandlers(s, hub, log)

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:      log,
		Mode:     mode,
		Auth:     middleware.NewAuthMiddleware(s.auth, log),
		Health:   h.health,
		AuthH:    h.auth,
		Notebook: h.notebook,
		Source:   h.source,
		Callback: h.callback,
		Note:     h.note,
		Chat:     h.chat,
		Search:   h.search,
		SSE:      h.sse,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := eventBus.StartForwarder(ctx, hub.Broadcast); err != nil {
		cancel()
		return nil, err
	}
	s.sweeper.Start(ctx)

	return &App{
		log:      log,
		server:   apphttp.NewServer(router, log),
		sweeper:  s.sweeper,
		eventBus: eventBus,
		cancel:   cancel,
	}, nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Run() }()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.Close()
	return err
}

func (a *App) Close() {
	a.cancel()
	if a.eventBus != nil {
		_ = a.eventBus.Close()
	}
	a.log.Sync()
}
