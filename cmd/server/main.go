package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distributor/internal/config"
	"distributor/internal/database"
	"distributor/internal/events"
	"distributor/internal/handlers"
	"distributor/internal/locker"
	"distributor/internal/logger"
	"distributor/internal/middleware"
	"distributor/internal/migrations"
	"distributor/internal/models"
	"distributor/internal/redis"
	"distributor/internal/repository"
	"distributor/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	// Initialize repositories
	var (
		userRepo    repository.UserRepository
		orderRepo   repository.OrderRepository
		productRepo repository.ProductRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		products := repository.NewMemoryProductRepository(models.DefaultProducts()...)
		productRepo = products
		orderRepo = repository.NewMemoryOrderRepository(products)
		userRepo = repository.NewMemoryUserRepository()
		zapLogger.Warn("Using in-memory store, data is lost on restart")
	default:
		db, err := database.Initialize(cfg.DatabaseURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		productRepo = repository.NewProductRepository(db)
		orderRepo = repository.NewOrderRepository(db)
		userRepo = repository.NewUserRepository(db)
		if err := migrations.SeedDefaults(ctx, productRepo, zapLogger); err != nil {
			zapLogger.Fatal("Failed to seed catalog", zap.Error(err))
		}
	}

	// Sessions and order locks live in Redis when it is configured
	var (
		sessions redis.SessionStore
		orderLk  locker.Locker
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessions = redisClient
		orderLk = locker.NewRedisLocker(redisClient.Raw(), cfg.LockTTL(), zapLogger)
	} else {
		sessions = redis.NewMemoryStore()
		orderLk = locker.NewKeyedMutex()
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		zapLogger.Info("Publishing order events to Kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.OrderEventsTopic))
	} else {
		publisher = events.NewLogPublisher(zapLogger)
	}
	defer publisher.Close()

	// Initialize services
	userService := services.NewUserService(userRepo, sessions, cfg.JWTSecret, cfg.SessionTTL(), zapLogger)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, orderLk, publisher, zapLogger)
	productService := services.NewProductService(productRepo)
	dashboardService := services.NewDashboardService(orderService, productService)

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(userService, orderService, productService, dashboardService, zapLogger)
	if err := handlers.RegisterValidators(); err != nil {
		zapLogger.Fatal("Failed to register validators", zap.Error(err))
	}

	// Setup routes
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	handlers.SetupRoutes(router, apiHandler, userService)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}
