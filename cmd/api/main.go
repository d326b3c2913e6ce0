package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quizbench/internal/adapter"
	"quizbench/internal/adapter/llm"
	"quizbench/internal/cache"
	"quizbench/internal/config"
	"quizbench/internal/database"
	"quizbench/internal/domain"
	"quizbench/internal/handler"
	"quizbench/internal/logger"
	"quizbench/internal/middleware"
	"quizbench/internal/repository"
	"quizbench/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Load the model catalog
	catalog, err := config.LoadModelCatalog(cfg.Models.CatalogPath)
	if err != nil {
		appLogger.Fatal("Failed to load model catalog", zap.Error(err))
	}
	appLogger.Info("Model catalog loaded",
		zap.Int("models", len(catalog.Models)),
		zap.Strings("available_groups", catalog.AvailableGroups(cfg.UseMocks)),
	)

	// Connect to database and apply migrations
	db, err := database.NewSQLXSqliteDB(cfg.DB.Path)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db.DB, "database/migrations"); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	runRepository := repository.NewRunRepository(db)
	quizRepository := repository.NewQuizRepository(db)
	resultRepository := repository.NewResultRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Runs left non-terminal by a crashed process can never finish.
	staleIDs, err := runRepository.MarkStaleRunsFailed(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to mark stale runs failed", zap.Error(err))
	}
	if len(staleIDs) > 0 {
		appLogger.Warn("Marked stale runs as failed", zap.Strings("run_ids", staleIDs))
	}

	// Initialize the optional response cache
	var cacheAdapter domain.Cache
	var chatTTL time.Duration
	if cfg.CacheEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		chatTTL = cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.ChatResponse, 24*time.Hour)
		appLogger.Info("Chat response cache enabled", zap.Duration("ttl", chatTTL))
	} else {
		appLogger.Info("No Redis address configured; chat responses are not cached")
	}

	// Initialize services
	builder := llm.NewBuilder(cfg.Adapter, cfg.UseMocks)
	engine := service.NewBenchmarkRunner(runRepository, resultRepository, txManager, appLogger, service.RunnerOptions{})
	benchmarkService := service.NewBenchmarkService(
		engine, quizRepository, runRepository, resultRepository,
		catalog, builder, cacheAdapter, chatTTL, appLogger,
	)

	// Initialize handlers
	benchmarkHandler := handler.NewBenchmarkHandler(benchmarkService, catalog, cfg.UseMocks)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	benchmarkHandler.RegisterRoutes(app.Group("/api"))

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.Bool("use_mocks", cfg.UseMocks))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
