package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/cache"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/database"
	"github.com/stemsi/exstem-engine/internal/handler"
	"github.com/stemsi/exstem-engine/internal/logger"
	"github.com/stemsi/exstem-engine/internal/middleware"
	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/repository/memstore"
	"github.com/stemsi/exstem-engine/internal/router"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/validator"
	"github.com/stemsi/exstem-engine/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("finalize", cfg.FinalizeMode).
		Msg("Starting ExStem exam engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Attempt Store ─────────────────────────────────────────────────
	var (
		store  repository.Store
		access service.AccessChecker
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memstore.New()
		if cfg.SeedFile != "" {
			n, err := mem.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("Failed to load seed file")
			}
			log.Info().Int("exams", n).Str("file", cfg.SeedFile).Msg("Seed loaded")
		}
		store, access = mem, mem
		log.Warn().Msg("Using in-memory store; attempts are lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = repository.NewPgStore(pool)
		access = repository.NewExamTargetRuleRepository(pool)
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	// The memory driver runs without Redis; PostgreSQL deployments require it.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		if cfg.StoreDriver != config.StoreDriverMemory || cfg.FinalizeMode == config.FinalizeModeDeferred {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Warn().Err(err).Msg("Redis unavailable; paper cache and shared rate limiting disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	var (
		paperCache service.PaperCache
		queue      service.FinalizeQueue
	)
	if rdb != nil {
		paperCache = cache.NewRedisPaperCache(rdb)
	}
	if cfg.FinalizeMode == config.FinalizeModeDeferred {
		queue = worker.NewRedisFinalizeQueue(rdb)
	}

	authService := service.NewAuthService(cfg)
	resultService := service.NewResultService(store, log)
	sessionService := service.NewExamSessionService(store, resultService, paperCache, queue, log)
	gradingService := service.NewGradingService(store, resultService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		StudentPortal: handler.NewStudentPortalHandler(sessionService, resultService, access),
		Grading:       handler.NewGradingHandler(gradingService, resultService),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	var answerLimiter *middleware.RateLimiter
	if cfg.AnswerRateLimit > 0 {
		answerLimiter = middleware.NewRateLimiter(windowCounter(rdb), cfg.AnswerRateLimit, time.Minute, log)
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if queue != nil {
		finalizeWorker := worker.NewFinalizeWorker(rdb, resultService, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			finalizeWorker.Start(workerCtx)
		}()
	}
	if cfg.SweepInterval > 0 {
		expiryWorker := worker.NewExpiryWorker(sessionService, cfg.SweepInterval, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			expiryWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, answerLimiter, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; the finalize worker flushes its batch.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func windowCounter(rdb *redis.Client) middleware.WindowCounter {
	if rdb == nil {
		return middleware.NewMemoryWindowCounter()
	}
	return middleware.NewRedisWindowCounter(rdb)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
