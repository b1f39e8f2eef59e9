// Command server runs the forum API.
//
// @title        Forum API
// @version      1.0
// @description  Cookie-based token sessions, posts, threaded comments and likes.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sixhundredbills/forum/internal/api"
	"github.com/sixhundredbills/forum/internal/api/handler"
	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/service"
	mongodb "github.com/sixhundredbills/forum/internal/infrastructure/db/mongo"
	rdb "github.com/sixhundredbills/forum/internal/infrastructure/db/redis"
	"github.com/sixhundredbills/forum/internal/infrastructure/queue"
	"github.com/sixhundredbills/forum/internal/infrastructure/token"
	"github.com/sixhundredbills/forum/internal/pkg/config"
	"github.com/sixhundredbills/forum/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "forum-api",
	})

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	redisClient, err := rdb.Connect(ctx, rdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	users := mongodb.NewUserRepository(db)
	posts := mongodb.NewPostRepository(db)
	comments := mongodb.NewCommentRepository(db)
	postLikes := mongodb.NewLikeRepository(db, mongodb.PostLikesCollection)
	commentLikes := mongodb.NewLikeRepository(db, mongodb.CommentLikesCollection)
	audit := mongodb.NewAuditRepository(db)

	if err := mongodb.EnsureIndexes(ctx, users, posts, comments, postLikes, commentLikes, audit); err != nil {
		return err
	}

	// --- Core ---
	codec, err := token.NewCodec(token.KeyFromSecret(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, audit, logger.Component("audit"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	authService := service.NewAuthService(users, codec, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, logger.Component("auth"),
		service.WithAdminSecret(cfg.Auth.AdminSignupSecret))
	contentService := service.NewContentService(posts, comments, postLikes, commentLikes, dispatcher, logger.Component("content"))
	profileService := service.NewProfileService(users, postLikes, commentLikes, logger.Component("profile"))

	// --- HTTP ---
	deps := api.Deps{
		Auth:    authService,
		Content: contentService,
		Profile: profileService,
		Codec:   codec,
		Users:   users,
		Cookies: middleware.CookieJar{
			Secure:     cfg.Auth.CookieSecure,
			AccessTTL:  authService.AccessTTL(),
			RefreshTTL: authService.RefreshTTL(),
		},
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx, redisClient) },
		},
		Log: logger.Component("http"),
	}
	if cfg.RateLimit.Enabled {
		deps.Limiter = rdb.NewFixedWindowLimiter(redisClient, cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	e := api.NewRouter(deps)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("forum api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		stopWorkers()
		dispatcher.Wait()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = e.Shutdown(shutdownCtx)

	// Handlers are done; nothing enqueues audit events past this point.
	stopWorkers()
	dispatcher.Wait()
	return err
}
