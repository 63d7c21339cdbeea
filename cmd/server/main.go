package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gohire/internal/config"
	"gohire/internal/handlers"
	"gohire/internal/middleware"
	"gohire/internal/repositories/mongodb"
	"gohire/internal/services"
	"gohire/pkg/cache"
	"gohire/pkg/database"
	"gohire/pkg/logger"
	"gohire/pkg/payout"
	"gohire/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFormat := "text"
	if config.IsProduction() {
		logFormat = "json"
	}
	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: logFormat,
		Output: "stdout",
		Colors: !config.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Storage
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
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
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	cacheService := services.NewCacheService(redisCache, appLogger)

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, cacheService)
	bookingRepo := mongodb.NewBookingRepository(db.Database, cacheService)
	transactionRepo := mongodb.NewTransactionRepository(db.Database, cacheService)
	referralRepo := mongodb.NewReferralRepository(db.Database, cacheService)
	withdrawalRepo := mongodb.NewWithdrawalRepository(db.Database, cacheService)
	bankAccountRepo := mongodb.NewBankAccountRepository(db.Database, cacheService)
	serviceRepo := mongodb.NewServiceRepository(db.Database, cacheService)

	// Audit trail for wallet mutations, always structured JSON.
	auditLogger, err := logger.NewAuditLogger(&logger.Config{
		Level:  logger.InfoLevel,
		Output: "stdout",
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize audit logger: %v", err)
	}

	// Services
	notifier := services.NewLogNotificationService(appLogger)
	walletService := services.NewWalletService(userRepo, transactionRepo, cfg.Engine, notifier, appLogger, auditLogger)
	referralService := services.NewReferralService(referralRepo, userRepo, walletService, cfg.Engine, notifier, appLogger)
	bookingService := services.NewBookingService(bookingRepo, serviceRepo, userRepo, walletService, referralService, cfg.Engine, notifier, appLogger)
	payoutGateway := payout.NewStubGateway(appLogger)
	withdrawalService := services.NewWithdrawalService(withdrawalRepo, bankAccountRepo, transactionRepo, userRepo, walletService, payoutGateway, cfg.Engine, notifier, appLogger)
	userService := services.NewUserService(userRepo, referralService, appLogger)
	catalogService := services.NewCatalogService(serviceRepo, userRepo, appLogger)

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	walletHandler := handlers.NewWalletHandler(walletService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	referralHandler := handlers.NewReferralHandler(referralService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(cacheService, cfg.Security.RateLimitPerMinute, appLogger))
	router.Use(middleware.LoggingMiddleware(appLogger))

	jwtSecret := cfg.Security.JWTSecret
	v1 := router.Group("/api/v1")
	{
		routes.SetupUserRoutes(v1, jwtSecret, userHandler, referralHandler, catalogHandler)
		routes.SetupBookingRoutes(v1, jwtSecret, bookingHandler)
		routes.SetupWalletRoutes(v1, jwtSecret, walletHandler)
		routes.SetupWithdrawalRoutes(v1, jwtSecret, withdrawalHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbState := "up"
		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			dbState = "down"
		}
		c.JSON(status, gin.H{
			"status":   "healthy",
			"version":  cfg.App.Version,
			"database": dbState,
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}
