package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	examauth "github.com/examhub/go-examauth"
	"github.com/examhub/go-examauth/middleware/ratelimit"
)

func main() {
	_ = godotenv.Load()

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("APP_ENV") != "production" {
		zl = zl.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	logger := examauth.NewZerologAdapter(zl)

	cfg, err := examauth.LoadConfig()
	if err != nil {
		zl.Fatal().Err(err).Msg("load config")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal().Err(err).Msg("open database")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := examauth.EnsureSchema(ctx, db); err != nil {
		zl.Fatal().Err(err).Msg("ensure schema")
	}

	repo := examauth.NewUsersRepository(db)
	tokens := examauth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	guests := examauth.NewGuestService(repo,
		examauth.WithGuestLimit(cfg.GuestLimit),
		examauth.WithGuestTTL(cfg.GuestTTL),
		examauth.WithGuestLogger(logger),
	)

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zl.Fatal().Err(err).Msg("parse redis url")
		}
		store = ratelimit.NewRedisStore(redis.NewClient(opt))
		logger.Info("rate limit counters backed by redis")
	}

	cleanup := examauth.NewCleanupRunner(guests, cfg.CleanupInterval, logger)
	go cleanup.Run(ctx)

	app := examauth.BuildApp(examauth.Dependencies{
		Config: cfg,
		Logger: logger,
		Repo:   repo,
		Tokens: tokens,
		Guests: guests,
		Store:  store,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	logger.Info("listening on %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		zl.Fatal().Err(err).Msg("server stopped")
	}
}
