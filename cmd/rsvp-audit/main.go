// Command rsvp-audit consumes RSVP and event activity from RabbitMQ and
// appends it to a log file.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mindset-app/mindset-backend/internal/config"
	applog "github.com/mindset-app/mindset-backend/internal/log"
	"github.com/mindset-app/mindset-backend/internal/queue"
)

func main() {
	_ = godotenv.Load()
	applog.Init(config.EnvOr("APP_ENV", "dev"), config.EnvOr("LOG_LEVEL", "info"))
	qc := config.LoadQueueConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{URL: qc.URL, LogPath: qc.AuditLog}
	log.Info().Str("queue", queue.ActivityQueueName).Str("file", qc.AuditLog).Msg("audit consumer started")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("audit consumer")
	}
}
