package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dropkiosk/dropkiosk/backend"
	"github.com/dropkiosk/dropkiosk/backend/handlers"
	"github.com/dropkiosk/dropkiosk/kiosk"
	"github.com/dropkiosk/dropkiosk/kiosk/allocation"
	"github.com/dropkiosk/dropkiosk/kiosk/database"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/executor"
	"github.com/dropkiosk/dropkiosk/kiosk/ledger"
	"github.com/dropkiosk/dropkiosk/kiosk/logger"
	"github.com/dropkiosk/dropkiosk/kiosk/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler("DropKiosk")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting DropKiosk",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := kiosk.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
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
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready", slog.Duration("took", time.Since(dbStartTime)))

	dropRepo := repositories.NewDropRepository(db.BunDB())
	codeRepo := repositories.NewCodeRepository(db.BunDB())
	challengeRepo := repositories.NewChallengeRepository(db.BunDB())
	proofRepo := repositories.NewProofRepository(db.BunDB())
	markerRepo := repositories.NewMarkerRepository(db.BunDB())
	errorRepo := repositories.NewErrorRepository(db.BunDB())

	ledgerClient, err := ledger.NewClient(ledger.Config{
		BaseURL:   cfg.Ledger.BaseURL,
		APIKey:    cfg.Ledger.APIKey,
		Timeout:   time.Duration(cfg.Ledger.TimeoutSeconds) * time.Second,
		CacheSize: cfg.Ledger.CacheSize,
		CacheTTL:  time.Duration(cfg.Ledger.CacheTTLSeconds) * time.Second,
	})
	if err != nil {
		slog.Error("Failed to create ledger client", slog.Any("error", err))
		os.Exit(-1)
	}

	exec := executor.New(
		executor.WithMaxInFlight(cfg.Kiosk.MaxInProgress),
		executor.WithRetry(cfg.Kiosk.RetryTimes, time.Duration(cfg.Kiosk.RetryCooldownSec)*time.Second),
	)

	rotator := allocation.NewRotator(dropRepo,
		time.Duration(cfg.Kiosk.GraceSeconds)*time.Second,
		time.Duration(cfg.Kiosk.TestGraceSeconds)*time.Second)
	issuer := allocation.NewIssuer(challengeRepo)
	allocator := allocation.NewAllocator(dropRepo, codeRepo, challengeRepo, proofRepo, ledgerClient)
	reconciler := allocation.NewReconciler(dropRepo, codeRepo, markerRepo, errorRepo, ledgerClient, exec)
	dropService := services.NewDropService(dropRepo, codeRepo, challengeRepo, exec)
	redeemService := services.NewRedeemService(ledgerClient)

	// Background reconciliation sweeps over all drops
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	scheduler := allocation.NewScheduler(dropRepo, reconciler,
		time.Duration(cfg.Kiosk.ReconcileSeconds)*time.Second,
		challengeRepo, proofRepo)
	scheduler.Start(runCtx)

	app := backend.NewApp(&handlers.WebApp{
		Config:      cfg,
		DB:          db,
		Drops:       dropRepo,
		Proofs:      proofRepo,
		Rotator:     rotator,
		Issuer:      issuer,
		Allocator:   allocator,
		Reconciler:  reconciler,
		DropService: dropService,
		Redeem:      redeemService,
		Version:     version,
	})

	slog.Info("Starting HTTP server", slog.String("addr", cfg.Web.Addr))
	go func() {
		if err := app.Listen(cfg.Web.Addr); err != nil {
			slog.Error("Failed to start server", slog.Any("error", err))
			stop()
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-s

	slog.Info("Shutting down...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.Any("error", err))
	}

	slog.Info("Shutdown complete")
}
