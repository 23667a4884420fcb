package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/quilldesk/quilldesk-backend/internal/coach/authorship"
	"github.com/quilldesk/quilldesk-backend/internal/db"
	httpx "github.com/quilldesk/quilldesk-backend/internal/http"
	"github.com/quilldesk/quilldesk-backend/internal/http/handlers"
	"github.com/quilldesk/quilldesk-backend/internal/http/middleware"
	"github.com/quilldesk/quilldesk-backend/internal/observability"
	"github.com/quilldesk/quilldesk-backend/internal/platform/envutil"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
	"github.com/quilldesk/quilldesk-backend/internal/platform/openai"
	"github.com/quilldesk/quilldesk-backend/internal/platform/redisdb"
	"github.com/quilldesk/quilldesk-backend/internal/repos"
	"github.com/quilldesk/quilldesk-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.New(envutil.String("LOG_MODE", "dev"))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, logg, observability.OtelConfig{
		ServiceName: "quilldesk-backend",
		Environment: envutil.String("APP_ENV", "dev"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})
	if shutdownOtel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(shutdownCtx); err != nil {
				logg.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	pg, err := db.NewPostgresService(logg)
	if err != nil {
		logg.Fatal("postgres init failed", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		logg.Fatal("postgres migration failed", "error", err)
	}

	rdb, err := redisdb.NewClient(logg)
	if err != nil {
		// Redis only backs rate limiting; the service runs without it.
		logg.Warn("redis unavailable, rate limiting disabled", "error", err)
		rdb = nil
	}

	patterns, err := authorship.LoadPatterns(os.Getenv("AUTHORSHIP_PATTERNS_PATH"))
	if err != nil {
		logg.Fatal("authorship patterns load failed", "error", err)
	}
	checker, err := authorship.NewChecker(patterns)
	if err != nil {
		logg.Fatal("authorship checker init failed", "error", err)
	}

	model, err := openai.NewClient(logg)
	if err != nil {
		logg.Fatal("openai client init failed", "error", err)
	}

	reporter := observability.NewReporter(logg)

	essayRepo := repos.NewEssayRepo(pg.DB(), logg)
	essaySvc := services.NewEssayService(pg.DB(), logg, essayRepo)
	coachSvc := services.NewCoachService(pg.DB(), logg, essayRepo, model, checker, reporter)

	jwtSecret := envutil.String("JWT_SECRET_KEY", "")
	if jwtSecret == "" {
		logg.Fatal("JWT_SECRET_KEY is required")
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:         logg,
		Auth:        middleware.NewAuthMiddleware(logg, jwtSecret),
		RateLimiter: middleware.NewRateLimiter(logg, rdb),
		Health:      handlers.NewHealthHandler(),
		Essays:      handlers.NewEssayHandler(essaySvc),
		Coach:       handlers.NewCoachHandler(coachSvc),
	})

	addr := ":" + envutil.String("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Fatal("server exited with error", "error", err)
	}
	logg.Info("server stopped")
}
