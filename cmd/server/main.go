// Package main runs the community events HTTP server with WebSocket push and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/gathering-hub/backend/config"
	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/comments"
	"github.com/gathering-hub/backend/internal/events"
	"github.com/gathering-hub/backend/internal/middleware"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/notices"
	"github.com/gathering-hub/backend/internal/notifications"
	"github.com/gathering-hub/backend/internal/realtime"
	"github.com/gathering-hub/backend/internal/worker"
	"github.com/gathering-hub/backend/pkg/queue"
	"github.com/gathering-hub/backend/pkg/redis"
	"github.com/gathering-hub/backend/pkg/response"
	"github.com/gathering-hub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Store, cfg.Database, logger)
	if err != nil {
		logger.Fatal("record store", zap.Error(err))
	}
	defer st.close()

	// Redis is optional: without it the fan-out runs in process and push stays local.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var hub *realtime.Hub
	var jobQueue *queue.Queue
	if rdb != nil {
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
		jobQueue = queue.NewQueue(rdb.Client, logger)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	var images *storage.Images
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.ImagesBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = storage.NewImages(s3Client, storage.MaxImageWidth, logger)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Notifications: fan-out, read state and the trigger used by the event workflow.
	fanout := notifications.NewFanout(st.accounts, st.notifications, hub, logger)
	var notifier events.Notifier
	if jobQueue != nil {
		notifier = notifications.NewQueueNotifier(jobQueue)
	} else {
		direct := notifications.NewDirectNotifier(fanout, logger)
		defer direct.Wait()
		notifier = direct
	}
	notificationService := notifications.NewService(st.notifications, hub, cfg.Notifications.RecentLimit, logger)
	notificationHandler := notifications.NewHandler(notificationService, logger)

	authHandler := auth.NewHandler(st.accounts, jwtService, cfg.Auth.AdminEmails, logger)

	eventService := events.NewService(st.events, st.accounts, notifier, events.Options{
		CreatorSeesPending: cfg.Events.CreatorSeesPending,
		StrictCapacity:     cfg.Events.StrictCapacity,
	}, logger)
	eventHandler := events.NewHandler(eventService, logger)

	commentService := comments.NewService(st.comments, map[models.ParentKind]comments.ParentCheck{
		models.ParentEvent: eventService.CheckVisible,
	}, logger)
	commentHandler := comments.NewHandler(commentService, logger)

	noticeService := notices.NewService(st.notices, commentService, st.accounts, logger)
	noticeHandler := notices.NewHandler(noticeService, logger)

	uploadHandler := storage.NewHandler(images, logger)

	wsValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.AccountID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "store": cfg.Store.Driver}
		if err := st.ping(c.Request.Context()); err != nil {
			logger.Warn("store health check failed", zap.Error(err))
			response.ServiceUnavailable(c, "record store unavailable")
			return
		}
		if rdb != nil {
			if err := rdb.Healthy(c.Request.Context()); err != nil {
				response.ServiceUnavailable(c, "redis unavailable")
				return
			}
			status["redis"] = "ok"
		}
		response.OK(c, status)
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, realtime.NewUpgrader(cfg.Server.AllowedOrigins()), logger, wsValidate))

	api := router.Group("")
	api.Use(middleware.JWT(jwtService, st.accounts, logger))
	{
		api.GET("/users", middleware.RequireAdmin(), authHandler.List)
		api.PUT("/users/:id/admin", middleware.RequireAdmin(), authHandler.SetAdmin)

		eventsGroup := api.Group("/events")
		eventHandler.Register(eventsGroup)
		eventsGroup.GET("/:id/comments", commentHandler.Threads(models.ParentEvent))
		eventsGroup.POST("/:id/comments", commentHandler.Add(models.ParentEvent))

		noticesGroup := api.Group("/notices")
		noticeHandler.Register(noticesGroup)
		noticesGroup.GET("/:id/comments", commentHandler.Threads(models.ParentNotice))
		noticesGroup.POST("/:id/comments", commentHandler.Add(models.ParentNotice))

		api.DELETE("/comments/:id", commentHandler.Delete)

		notificationHandler.Register(api.Group("/notifications"))
		uploadHandler.Register(api.Group("/uploads"))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if jobQueue != nil && cfg.Notifications.WorkerEnabled {
		processor := worker.NewFanoutProcessor(jobQueue, fanout, logger)
		g.Go(func() error {
			logger.Info("fan-out worker started")
			processor.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
