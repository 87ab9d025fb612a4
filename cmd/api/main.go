package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	httptransport "github.com/Abdelrahmans123/SocialApp/internal/http"
	"github.com/Abdelrahmans123/SocialApp/internal/http/handler"
	"github.com/Abdelrahmans123/SocialApp/internal/http/middleware"
	"github.com/Abdelrahmans123/SocialApp/internal/jwt"
	"github.com/Abdelrahmans123/SocialApp/internal/mail"
	"github.com/Abdelrahmans123/SocialApp/internal/metrics"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
	"github.com/Abdelrahmans123/SocialApp/internal/server"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
	"github.com/Abdelrahmans123/SocialApp/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newMongoDatabase,
			newUserRepository,
			newPostRepository,
			newTokenRepository,
			newRateLimiter,
			newTokenGenerator,
			newMailer,
			metrics.NewCollector,
			service.NewAuthService,
			service.NewPostService,
			service.NewUserService,
			handler.NewAuthHandler,
			handler.NewPostHandler,
			handler.NewUserHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newMongoDatabase(lc fx.Lifecycle, cfg config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

func newUserRepository(db *mongo.Database) repository.UserRepository {
	return repository.NewMongoUserRepo(db)
}

func newPostRepository(db *mongo.Database) repository.PostRepository {
	return repository.NewMongoPostRepo(db)
}

func newTokenRepository(db *mongo.Database) repository.TokenRepository {
	return repository.NewMongoTokenRepo(db)
}

func newRateLimiter(lc fx.Lifecycle, cfg config.Config) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			limiter.Stop()
			return nil
		},
	})

	return limiter
}

func newTokenGenerator(cfg config.Config) *jwt.Generator {
	return jwt.NewGenerator(cfg.JWTSecret)
}

func newMailer(cfg config.Config, logger *zap.Logger) mail.Sender {
	return mail.NewClient(cfg, logger)
}

func newAuthMiddleware(authService *service.AuthService) *middleware.Auth {
	return &middleware.Auth{AuthService: authService}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
