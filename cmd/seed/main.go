package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/repository"
	"github.com/noah-isme/gate-violation-api/internal/seed"
	"github.com/noah-isme/gate-violation-api/internal/service"
	"github.com/noah-isme/gate-violation-api/pkg/config"
	"github.com/noah-isme/gate-violation-api/pkg/database"
	"github.com/noah-isme/gate-violation-api/pkg/logger"
)

func main() {
	file := flag.String("file", "seeds/dataset.yaml", "path to the YAML dataset")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	f, err := os.Open(*file)
	if err != nil {
		logr.Fatal("failed to open dataset", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close() //nolint:errcheck

	ds, err := seed.Load(f)
	if err != nil {
		logr.Fatal("invalid dataset", zap.String("file", *file), zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	validate := service.NewValidator()
	studentRepo := repository.NewStudentRepository(db)
	students := service.NewStudentService(studentRepo, repository.NewStudentCardRepository(db), nil, validate, logr)
	settings := service.NewSettingService(repository.NewSystemSettingRepository(db), validate, logr)
	seeder := seed.NewSeeder(students, studentRepo, settings, repository.NewUserRepository(db), logr)

	if _, err := seeder.Run(ctx, ds); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}
