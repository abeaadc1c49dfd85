// Package main runs the notification fan-out worker on its own.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gathering-hub/backend/config"
	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/notifications"
	"github.com/gathering-hub/backend/internal/realtime"
	"github.com/gathering-hub/backend/internal/worker"
	"github.com/gathering-hub/backend/pkg/database"
	"github.com/gathering-hub/backend/pkg/queue"
	"github.com/gathering-hub/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Store.Driver != "postgres" {
		logger.Fatal("the standalone worker needs STORE_DRIVER=postgres")
	}
	if cfg.Redis.Addr == "" {
		logger.Fatal("the standalone worker needs REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Nudges reach API instances through pub/sub; this process holds no sockets.
	pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, pubsub, nil)

	fanout := notifications.NewFanout(auth.NewRepository(pool), notifications.NewRepository(pool), hub, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewFanoutProcessor(jobQueue, fanout, logger)

	if queued, dead, err := jobQueue.Pending(ctx); err == nil {
		logger.Info("worker started", zap.Int64("queued", queued), zap.Int64("dead_letter", dead))
	}
	processor.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
