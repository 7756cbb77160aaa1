package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sahayak/internal/config"
	"sahayak/internal/handlers"
	"sahayak/internal/metrics"
	"sahayak/internal/middleware"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/repositories/memory"
	"sahayak/internal/repositories/mongodb"
	"sahayak/internal/services"
	"sahayak/internal/utils"
	"sahayak/pkg/cache"
	"sahayak/pkg/classifier"
	"sahayak/pkg/database"
	"sahayak/pkg/lock"
	"sahayak/pkg/logger"
	"sahayak/pkg/push"
	"sahayak/pkg/storage"
	"sahayak/pkg/websocket"
	"sahayak/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type repositories struct {
	issues        interfaces.IssueRepository
	users         interfaces.UserRepository
	notifications interfaces.NotificationRepository
}

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, &cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
	}

	repos, mongoDB, err := setupRepositories(ctx, cfg, redisCache, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize repositories")
	}
	if mongoDB != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Close(closeCtx); err != nil {
				appLogger.WithError(err).Warn("Failed to close MongoDB connection")
			}
		}()
	}

	if cfg.Database.MigrateDownTo >= 0 {
		appLogger.WithField("version", cfg.Database.MigrateDownTo).Info("Migrations rolled back")
		return
	}

	storageProvider, err := setupStorage(ctx, cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	pushProvider, err := setupPush(ctx, cfg.Push, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize push provider")
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	if redisCache != nil {
		locker = lock.NewRedisLocker(redisCache, utils.CacheIssueLockPrefix, cfg.Lifecycle.LockTTL, cfg.Lifecycle.LockWait, appLogger)
	}

	wsHandler := websocket.NewHandler(ctx, &websocket.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		SendBufferSize:  cfg.WebSocket.SendBufferSize,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	}, appLogger)
	metrics.RegisterWebsocketClients(func() float64 {
		return float64(wsHandler.GetHub().ConnectedClients())
	})

	notificationService := services.NewNotificationService(
		repos.users, repos.notifications, pushProvider, wsHandler, cfg.Outbox, appLogger,
	)
	issueService := services.NewIssueService(
		repos.issues,
		repos.users,
		storageProvider,
		classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout),
		notificationService,
		locker,
		cfg.Lifecycle,
		cfg.Storage,
		appLogger,
	)
	userService := services.NewUserService(repos.users)

	retrier := services.NewNotificationRetrier(notificationService, cfg.Outbox, cfg.Lifecycle.OperationTimeout, appLogger)
	if err := retrier.Start(); err != nil {
		appLogger.WithError(err).Fatal("Failed to start notification retrier")
	}

	var counter middleware.WindowCounter
	if redisCache != nil {
		counter = redisCache
	}
	submitLimiter := middleware.NewDailyRateLimiter(counter, cfg.Security.SubmitLimitPerDay, appLogger)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				submitLimiter.Cleanup()
			}
		}
	}()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	auth := middleware.AuthRequired(cfg.Security.JWTSecret)
	routes.SetupPostRoutes(router, handlers.NewPostHandler(issueService, appLogger), auth, submitLimiter.Limit("submit"))
	routes.SetupUserRoutes(router, handlers.NewUserHandler(userService, notificationService, appLogger), auth)
	routes.SetupRealtimeRoutes(router, cfg.WebSocket.Path, wsHandler.HandleWebSocket, auth)

	if local, ok := storageProvider.(*storage.LocalStorage); ok {
		router.Static("/uploads", local.BasePath())
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{}
		healthy := true
		if mongoDB != nil {
			if err := mongoDB.Ping(c.Request.Context()); err != nil {
				checks["mongodb"] = err.Error()
				healthy = false
			} else {
				checks["mongodb"] = "ok"
			}
		}
		if redisCache != nil {
			if err := redisCache.Ping(c.Request.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	retrier.Stop(shutdownCtx)
	if closer, ok := storageProvider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			appLogger.WithError(err).Warn("Failed to close storage client")
		}
	}

	appLogger.Info("Server exited")
}

func setupRepositories(ctx context.Context, cfg *config.Config, redisCache *cache.RedisCache, log *logger.Logger) (*repositories, *database.MongoDB, error) {
	if cfg.Database.Driver == config.DatabaseDriverMemory {
		log.Warn("Using in-memory repositories; data is lost on restart")
		return &repositories{
			issues:        memory.NewIssueRepository(),
			users:         memory.NewUserRepository(),
			notifications: memory.NewNotificationRepository(),
		}, nil, nil
	}

	db, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	migrator := database.NewMigrator(db.Database, log)
	switch {
	case cfg.Database.MigrateDownTo >= 0:
		if err := migrator.Down(ctx, cfg.Database.MigrateDownTo); err != nil {
			return nil, db, fmt.Errorf("failed to roll back migrations: %w", err)
		}
	case cfg.Database.RunMigrations:
		if err := migrator.Up(ctx); err != nil {
			return nil, db, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var userCache mongodb.CacheService
	if redisCache != nil {
		userCache = redisCache
	}

	return &repositories{
		issues:        mongodb.NewIssueRepository(db.Database),
		users:         mongodb.NewUserRepository(db.Database, userCache),
		notifications: mongodb.NewNotificationRepository(db.Database),
	}, db, nil
}

func setupStorage(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case config.StorageProviderGCP:
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	case config.StorageProviderAWS:
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

func setupPush(ctx context.Context, cfg *config.PushConfig, log *logger.Logger) (push.PushProvider, error) {
	if cfg.Provider == config.PushProviderLog {
		return push.NewLogProvider(log), nil
	}
	return push.NewFCMProvider(ctx, cfg.FCM.ProjectID, cfg.FCM.Credentials)
}
