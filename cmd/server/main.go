package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"quizquest/internal/cache"
	"quizquest/internal/config"
	"quizquest/internal/database"
	"quizquest/internal/docstore"
	"quizquest/internal/handlers"
	"quizquest/internal/logger"
	"quizquest/internal/repository"
	"quizquest/internal/security"
	"quizquest/internal/service"

	"github.com/redis/go-redis/v9"
)

const (
	stepStore    = "Document store"
	stepRedis    = "Redis"
	stepServices = "Initializing services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(stepStore, stepRedis, stepServices)

	// Serve /health while the store and Redis come up
	root := &swapHandler{}
	root.Store(startupHandler(startup))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	startup.SetCurrentStep(stepStore)
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open document store", "error", err)
	}
	defer closeStore()
	startup.CompleteStep(stepStore)

	startup.SetCurrentStep(stepRedis)
	rdb, err := cache.NewRedisClient(ctx, cfg)
	switch {
	case errors.Is(err, cache.ErrRedisDisabled):
		log.Info("Redis not configured, using in-memory guest streaks and store-backed leaderboards")
	case err != nil:
		log.Warn("Redis unavailable, continuing without it", "addr", cfg.RedisAddr, "error", err)
	default:
		defer rdb.Close()
		log.Info("Redis connected", "addr", cfg.RedisAddr)
	}
	startup.CompleteStep(stepRedis)

	startup.SetCurrentStep(stepServices)
	h, buffer, limiter := buildHandlers(cfg, store, rdb, startup, log)
	defer limiter.Stop()
	buffer.Start(ctx)
	root.Store(h.Routes())
	startup.CompleteStep(stepServices)
	startup.MarkReady()
	log.Info("Server ready", "store", cfg.StoreType, "timezone", cfg.Timezone)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("Server failed", "error", err)
	}

	log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if err := buffer.Shutdown(shutdownCtx); err != nil {
		log.Error("Leaderboard points were not flushed", "error", err)
	}
	log.Info("Server stopped")
}

// swapHandler lets the router replace the startup handler while serving.
type swapHandler struct {
	handler atomic.Pointer[http.Handler]
}

func (s *swapHandler) Store(h http.Handler) {
	s.handler.Store(&h)
}

func (s *swapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.handler.Load()).ServeHTTP(w, r)
}

// startupHandler answers /health and refuses everything else until ready.
func startupHandler(startup *handlers.StartupStatus) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", startup.Health)
	mux.Handle("/", startup.RequireReady(http.NotFoundHandler()))
	return mux
}

// openStore opens the configured document store. The SQL store runs
// migrations first.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (docstore.Store, func(), error) {
	if strings.EqualFold(cfg.StoreType, "memory") {
		log.Warn("Using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), func() {}, nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("Migrations completed successfully", "applied", applied)

	return docstore.NewSQLStore(db), func() { db.Close() }, nil
}

func buildHandlers(cfg *config.Config, store docstore.Store, rdb *redis.Client, startup *handlers.StartupStatus, log *logger.Logger) (*handlers.Handlers, *service.LeaderboardBuffer, *security.RateLimiter) {
	// Initialize repositories
	questionRepo := repository.NewQuestionRepository(store)
	storyRepo := repository.NewStoryRepository(store)
	challengeRepo := repository.NewChallengeRepository(store)
	boardRepo := repository.NewLeaderboardRepository(store)

	var guestStreaks service.GuestStreakStore = repository.NewMemoryGuestStreakRepository()
	var mirror *service.RedisMirror
	var pointsMirror service.PointsMirror
	if rdb != nil {
		guestStreaks = repository.NewRedisGuestStreakRepository(rdb)
		mirror = service.NewRedisMirror(rdb, boardRepo)
		pointsMirror = mirror
	}

	// Initialize services
	settings := service.NewSettingsService(repository.NewSettingsRepository(store), log.With("component", "settings"))
	progress := service.NewProgressService(repository.NewProgressRepository(store), log.With("component", "progress"))
	resume := service.NewResumeService(repository.NewResumeRepository(store), log.With("component", "resume"))
	orders := service.NewQuestionOrderService(repository.NewQuestionOrderRepository(store), questionRepo, service.RandomShuffler{})
	streaks := service.NewStreakService(repository.NewStreakRepository(store), guestStreaks, cfg.Location(), log.With("component", "streaks"))
	buffer := service.NewLeaderboardBuffer(service.NewStoreSink(boardRepo), pointsMirror, cfg.LeaderboardFlushInterval, log.With("component", "leaderboard"))
	daily := service.NewDailyChallengeService(challengeRepo, streaks, buffer, log.With("component", "daily"))
	sessions := service.NewSessionManager(2 * time.Hour)
	quiz := service.NewQuizService(progress, resume, orders, settings, buffer, daily, sessions, log.With("component", "quiz"))
	stories := service.NewStoryService(storyRepo, settings, log.With("component", "stories"))
	leaderboard := service.NewLeaderboardService(boardRepo, mirror, log.With("component", "leaderboard"))
	overview := service.NewOverviewService(progress, resume, streaks, daily)
	backup := service.NewBackupService(store, cfg.StoreType, log.With("component", "backup"))

	if cfg.AuthJWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET is not set; every request is treated as a guest or rejected")
	}
	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	// Initialize handlers
	h := &handlers.Handlers{
		Middleware:  handlers.NewMiddleware(security.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer), limiter, cfg.AdminUserIDs, log),
		Startup:     startup,
		Quiz:        handlers.NewQuizHandler(quiz, progress, resume, settings, overview, log),
		Streak:      handlers.NewStreakHandler(streaks, daily, log),
		Story:       handlers.NewStoryHandler(stories, log),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboard, buffer, log),
		Admin:       handlers.NewAdminHandler(backup, settings, questionRepo, storyRepo, challengeRepo, log),
		Log:         log,
	}
	return h, buffer, limiter
}
