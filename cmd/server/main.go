package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/database"
	"github.com/stemsi/proctor-backend/internal/handler"
	"github.com/stemsi/proctor-backend/internal/logger"
	"github.com/stemsi/proctor-backend/internal/middleware"
	"github.com/stemsi/proctor-backend/internal/repository"
	"github.com/stemsi/proctor-backend/internal/router"
	"github.com/stemsi/proctor-backend/internal/service"
	"github.com/stemsi/proctor-backend/internal/session"
	"github.com/stemsi/proctor-backend/internal/validator"
	"github.com/stemsi/proctor-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting proctor backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	examinerRepo := repository.NewExaminerRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, examinerRepo, log)
	examService := service.NewExamService(examRepo, rdb, cfg.ExamCacheTTL, log)
	feed := service.NewProctorFeed(rdb, violationRepo, log)
	submissionService := service.NewSubmissionService(examService, attemptRepo, feed, log)
	resultService := service.NewResultService(examService, attemptRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	sessionCfg := session.Config{
		TickInterval:  cfg.SessionTick,
		SubmitTimeout: cfg.SubmitTimeout,
	}
	wsHandler := handler.NewWSHandler(examService, submissionService, feed, sessionCfg, log, cfg.AllowedOrigins)
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Exam:    handler.NewExamHandler(examService, resultService, log),
		Public:  handler.NewPublicHandler(examService, submissionService, log),
		WS:      wsHandler,
		Monitor: handler.NewMonitorHandler(resultService, feed, log),
		Health: handler.NewHealthHandler(map[string]handler.Probe{
			"postgres": pool.Ping,
			"redis":    database.RedisPing(rdb),
		}),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	violationWorker := worker.NewViolationWorker(violationRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		violationWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every exam into Redis before accepting traffic.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)
	r := router.SetupRouter(authService, authLimiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Hijacked WebSocket streams are not tracked by Shutdown. Close them
	// and let finalized sessions record their attempts while the stores are up.
	if err := wsHandler.Drain(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Exam streams did not drain in time")
	}

	// 3. Stop background workers and wait for the queue buffer to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
