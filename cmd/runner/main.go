package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quizbench/internal/adapter"
	"quizbench/internal/adapter/llm"
	"quizbench/internal/cache"
	"quizbench/internal/config"
	"quizbench/internal/database"
	"quizbench/internal/domain"
	"quizbench/internal/logger"
	"quizbench/internal/quiz"
	"quizbench/internal/repository"
	"quizbench/internal/service"

	"go.uber.org/zap"
)

func main() {
	quizPath := flag.String("quiz", "", "path to the quiz YAML file")
	models := flag.String("models", "", "comma-separated model ids")
	group := flag.String("group", "", "named model group from the catalog")
	parallel := flag.Bool("parallel", false, "run models concurrently")
	useMocks := flag.Bool("mock", false, "substitute every model with a mock adapter")
	flag.Parse()

	if *quizPath == "" {
		fmt.Fprintln(os.Stderr, "usage: runner -quiz <file> [-models a,b | -group name] [-parallel] [-mock]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *useMocks {
		cfg.UseMocks = true
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	catalog, err := config.LoadModelCatalog(cfg.Models.CatalogPath)
	if err != nil {
		appLogger.Fatal("Failed to load model catalog", zap.Error(err))
	}

	def, rawYAML, err := quiz.LoadFile(*quizPath)
	if err != nil {
		appLogger.Fatal("Failed to load quiz", zap.String("path", *quizPath), zap.Error(err))
	}

	db, err := database.NewSQLXSqliteDB(cfg.DB.Path)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB, "database/migrations"); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	runRepository := repository.NewRunRepository(db)
	quizRepository := repository.NewQuizRepository(db)
	resultRepository := repository.NewResultRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	var cacheAdapter domain.Cache
	var chatTTL time.Duration
	if cfg.CacheEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		chatTTL = cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.ChatResponse, 24*time.Hour)
	}

	builder := llm.NewBuilder(cfg.Adapter, cfg.UseMocks)
	engine := service.NewBenchmarkRunner(runRepository, resultRepository, txManager, appLogger,
		service.RunnerOptions{Parallel: *parallel})
	benchmarkService := service.NewBenchmarkService(
		engine, quizRepository, runRepository, resultRepository,
		catalog, builder, cacheAdapter, chatTTL, appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := benchmarkService.RegisterQuiz(ctx, rawYAML); err != nil {
		appLogger.Fatal("Failed to register quiz", zap.Error(err))
	}

	modelIDs, err := resolveModels(catalog, *models, *group, cfg.UseMocks)
	if err != nil {
		appLogger.Fatal("Failed to resolve models", zap.Error(err))
	}
	appLogger.Info("Starting benchmark run",
		zap.String("quiz_id", def.ID),
		zap.Strings("models", modelIDs),
		zap.Bool("parallel", *parallel),
	)

	summary, err := benchmarkService.StartRun(ctx, def.ID, modelIDs, nil)
	if err != nil {
		appLogger.Fatal("Run failed", zap.Error(err))
	}

	printSummary(benchmarkService, summary)
}

// resolveModels picks the models to run: an explicit list wins, then a
// named group, then every available catalog model.
func resolveModels(catalog *config.ModelCatalog, models, group string, useMocks bool) ([]string, error) {
	if models != "" {
		var ids []string
		for _, id := range strings.Split(models, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
		return ids, nil
	}
	if group != "" {
		configs, err := catalog.AvailableByGroup(group, useMocks)
		if err != nil {
			return nil, err
		}
		if len(configs) == 0 {
			return nil, fmt.Errorf("no available models in group %s", group)
		}
		return configIDs(configs), nil
	}
	available := catalog.AvailableModels(useMocks)
	if len(available) == 0 {
		return nil, fmt.Errorf("no models are available; check API key environment variables")
	}
	return configIDs(available), nil
}

func configIDs(configs []*config.ModelConfig) []string {
	ids := make([]string, 0, len(configs))
	for _, m := range configs {
		ids = append(ids, m.ID)
	}
	return ids
}

func printSummary(svc service.BenchmarkService, summary *domain.RunSummary) {
	fmt.Printf("run %s on quiz %s\n", summary.RunID, summary.QuizID)
	for _, m := range summary.Models {
		if m.State == domain.ModelRunCompleted {
			fmt.Printf("  %-30s %s  answered=%d refused=%d\n", m.ModelID, m.State, m.Answered, m.Refused)
		} else {
			fmt.Printf("  %-30s %s  %s\n", m.ModelID, m.State, m.Error)
		}
	}

	_, outcomes, err := svc.GetRunResults(context.Background(), summary.RunID)
	if err != nil || len(outcomes) == 0 {
		return
	}
	fmt.Println("outcomes:")
	for _, o := range outcomes {
		fmt.Printf("  %-30s %s\n", o.ModelID, o.Result)
	}
}
