package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"bidrag/internal/audit"
	"bidrag/internal/grounds/assemble"
	"bidrag/internal/grounds/handler"
	"bidrag/internal/grounds/person"
	"bidrag/internal/grounds/service"
	"bidrag/internal/grounds/store"
	"bidrag/internal/platform/config"
	"bidrag/internal/platform/httpserver"
	"bidrag/internal/platform/logger"
	"bidrag/internal/platform/metrics"
	platformredis "bidrag/internal/platform/redis"
	"bidrag/internal/registry"
	"bidrag/internal/registry/cache"
	"bidrag/pkg/platform/middleware/actor"
	"bidrag/pkg/platform/middleware/requestid"
	"bidrag/pkg/platform/middleware/requesttime"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	activeStore, cleanup, err := newActiveStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Collaborator registries run in-memory until the upstream clients land.
	reg := registry.NewMemory()

	var thresholds registry.ThresholdTables = reg
	if redisClient != nil {
		thresholds = cache.NewThresholdCache(reg, redisClient.Client, config.ThresholdCacheTTL, log)
	}

	auditStore := audit.NewMemoryStore()
	auditQueue := audit.NewQueue(auditStore, 256)
	worker := audit.NewWorker(auditStore, auditQueue.Inbox(), log)

	svc := service.New(
		assemble.New(person.NewBuilder(reg, log)),
		reg,
		thresholds,
		nil,
		activeStore,
		audit.NewPublisher(auditQueue),
		service.NewMetrics(),
		log,
	)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(actor.Middleware)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler.New(svc, reg, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bidrag-grunnlag", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newActiveStore picks the generation store: Postgres when a DSN is
// configured, in-memory otherwise.
func newActiveStore(ctx context.Context, cfg config.Server, log *slog.Logger) (store.ActiveStore, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, generations are not durable")
		return store.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("postgres connected")
	return pg, func() { db.Close() }, nil
}
