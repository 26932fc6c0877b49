package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk"
	"github.com/dropkiosk/dropkiosk/kiosk/database"
	"github.com/dropkiosk/dropkiosk/kiosk/logger"
	"github.com/dropkiosk/dropkiosk/kiosk/migration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("DropKiosk-Migrate")))

	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := kiosk.LoadConfig(configPath)
	if err != nil {
		logger.LogError("Failed to load config", err)
		os.Exit(1)
	}
	logger.LogSystem("Starting legacy import", slog.String("config", configPath))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("Failed to connect to MongoDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	migrator := migration.NewMigrator(db.BunDB(), client, cfg.Mongo.Database)

	// Large imports outlive the 30s connect timeout
	if err := migrator.MigrateAll(context.Background()); err != nil {
		logger.LogError("Migration failed", err)
		os.Exit(1)
	}

	logger.LogSystem("Migration completed successfully!")
}
