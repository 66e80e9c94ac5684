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
	"github.com/rs/zerolog/log"

	"github.com/mindset-app/mindset-backend/internal/config"
	"github.com/mindset-app/mindset-backend/internal/database"
	applog "github.com/mindset-app/mindset-backend/internal/log"
	"github.com/mindset-app/mindset-backend/internal/repository"
	"github.com/mindset-app/mindset-backend/internal/router"
	"github.com/mindset-app/mindset-backend/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	applog.Init(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Error().Err(err).Msg("ensure schema")
		}
		cancel()
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var pub service.Publisher = service.NopPublisher{}
	if qc := config.LoadQueueConfig(); qc.Enabled {
		pub = service.NewAMQPPublisher(qc.URL, qc.DialTimeout)
	}

	users := repository.NewUserRepo(db)
	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		DB:        db,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Resolver:  service.NewIdentityResolver(users),
		Events:    service.NewEventService(repository.NewEventRepo(db), pub),
		RSVPs:     service.NewRSVPService(repository.NewRSVPRepo(db), pub),
		Auth: service.NewAuthService(users, repository.NewTokenRepo(db), service.AuthConfig{
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
			BcryptCost:     cfg.BcryptCost,
		}),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
