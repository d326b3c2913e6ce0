package main

import (
	"flag"
	"log"

	"quizbench/internal/config"
	"quizbench/internal/database"
	"quizbench/internal/logger"
)

func main() {
	migrationsDir := flag.String("dir", "database/migrations", "migrations directory")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Logger)
	l := logger.Get()
	defer l.Sync()

	db, err := database.NewSQLXSqliteDB(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, *migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
}
