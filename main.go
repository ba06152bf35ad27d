package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/AnishKajan/ComicGuess-sub002/internal/auth"
	"github.com/AnishKajan/ComicGuess-sub002/internal/game"
	"github.com/AnishKajan/ComicGuess-sub002/internal/handlers"
	"github.com/AnishKajan/ComicGuess-sub002/internal/puzzle"
	"github.com/AnishKajan/ComicGuess-sub002/internal/ratelimit"
	"github.com/AnishKajan/ComicGuess-sub002/internal/roster"
	"github.com/AnishKajan/ComicGuess-sub002/internal/storage"
	"github.com/AnishKajan/ComicGuess-sub002/internal/streak"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting ComicGuess in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	jwtSecret := util.GetEnvString("JWT_SECRET", "")
	if jwtSecret == "" {
		if isProduction {
			util.LogFatal("JWT_SECRET is required in production")
		}
		jwtSecret = "dev-secret"
		util.LogWarn("JWT_SECRET not set, using development secret")
	}

	characters, err := roster.Load(util.GetEnvString("ROSTER_PATH", DefaultRosterPath))
	if err != nil {
		util.LogFatal("Failed to load character roster: %v", err)
	}

	store := openStore()
	defer func() {
		if err := store.Close(); err != nil {
			util.LogWarn("Failed to close store: %v", err)
		}
	}()

	selector := puzzle.NewSelector(characters, store)
	tracker := streak.NewTracker(store)
	gameService := game.NewService(selector, tracker, store, store)

	limiter := ratelimit.New(rateLimitsFromEnv(), util.GetEnvDuration("RATE_LIMITER_TTL", time.Hour))

	srv := &handlers.Server{
		Game:       gameService,
		Selector:   selector,
		Users:      store,
		Limiter:    limiter,
		Verifier:   auth.NewVerifier(jwtSecret),
		AdminToken: util.GetEnvString("ADMIN_TOKEN", ""),
		StartTime:  time.Now(),
	}

	router := gin.Default()
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(globalRateLimitMiddleware(
		util.GetEnvInt("GLOBAL_RATE_LIMIT_RPS", 200),
		util.GetEnvInt("GLOBAL_RATE_LIMIT_BURST", 400)))
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.POST(RouteGuess, srv.AuthRequired(), srv.RateLimit(ratelimit.ClassGuess), srv.SubmitGuess)
	router.GET(RoutePuzzleMeta, srv.RateLimit(ratelimit.ClassGeneral), srv.PuzzleMeta)
	router.GET(RoutePuzzleStatus, srv.AuthRequired(), srv.RateLimit(ratelimit.ClassGeneral), srv.PuzzleStatus)
	router.GET(RouteStreaks, srv.AuthRequired(), srv.RateLimit(ratelimit.ClassGeneral), srv.Streaks)
	router.GET(RouteProgress, srv.AuthRequired(), srv.RateLimit(ratelimit.ClassGeneral), srv.Progress)
	router.POST(RouteHotfix, srv.AdminRequired(), srv.Hotfix)
	router.POST(RouteCreateUser, srv.AdminRequired(), srv.CreateUser)
	router.GET(RouteHealthz, srv.Healthz)

	startMaintenanceRoutines(selector, limiter)

	startServer(router)
}

func openStore() storage.Store {
	dbPath := util.GetEnvString("DB_PATH", DefaultDBPath)
	if dbPath == "memory" {
		util.LogWarn("Using in-memory store; state is lost on restart")
		return storage.NewMemoryStore()
	}
	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		util.LogFatal("Failed to open store at %s: %v", dbPath, err)
	}
	util.LogInfo("Opened SQLite store at %s", dbPath)
	return store
}

func rateLimitsFromEnv() map[string]ratelimit.ClassLimits {
	limits := ratelimit.DefaultLimits()
	guessLimits := limits[ratelimit.ClassGuess]
	guessLimits.IP.MaxRequests = util.GetEnvInt("RATE_LIMIT_GUESS_IP", guessLimits.IP.MaxRequests)
	guessLimits.User.MaxRequests = util.GetEnvInt("RATE_LIMIT_GUESS_USER", guessLimits.User.MaxRequests)
	limits[ratelimit.ClassGuess] = guessLimits

	general := limits[ratelimit.ClassGeneral]
	general.IP.MaxRequests = util.GetEnvInt("RATE_LIMIT_GENERAL_IP", general.IP.MaxRequests)
	general.User.MaxRequests = util.GetEnvInt("RATE_LIMIT_GENERAL_USER", general.User.MaxRequests)
	limits[ratelimit.ClassGeneral] = general
	return limits
}

func startMaintenanceRoutines(selector *puzzle.Selector, limiter *ratelimit.Limiter) {
	retentionDays := util.GetEnvInt("PUZZLE_RETENTION_DAYS", DefaultRetentionDays)

	// Pre-create today's puzzles immediately so the first player of the day
	// never races creation, then keep them warm across the UTC rollover.
	go func() {
		ctx := context.Background()
		selector.EnsureToday(ctx)
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			selector.EnsureToday(ctx)
			selector.CleanupOld(ctx, retentionDays)
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Sweep(time.Now())
		}
	}()

	util.LogInfo("Started maintenance routines for puzzles and rate limit windows")
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
