package main

import (
	"context"
	"log"

	"gosvca/adapters/postgres"
	"gosvca/app"
	"gosvca/internal"
	"gosvca/internal/config"
	"gosvca/internal/testkit"
	"gosvca/ports"
	"gosvca/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var runs ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		runs = repo
		logger.Info("using PostgreSQL run store")
	} else {
		runs = testkit.NewInMemoryRunRepository()
		logger.Warn("DATABASE_URL not set, runs are kept in memory only")
	}

	analysisService := app.NewAnalysisService(runs, logger)
	sweepService := app.NewSweepService(analysisService, logger)

	server := ui.NewApp(analysisService, sweepService, runs, logger)
	if err := server.Start(ui.Config{Port: cfg.Server.Port}); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
