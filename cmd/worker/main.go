package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appintegration "github.com/commercehub/backend/internal/application/integration"
	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/config"
	"github.com/commercehub/backend/internal/infrastructure/ecommerce"
	"github.com/commercehub/backend/internal/infrastructure/logger"
	"github.com/commercehub/backend/internal/infrastructure/persistence"
	"github.com/commercehub/backend/internal/infrastructure/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CommerceHub sync worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("worker_id", cfg.SyncWorker.WorkerID),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	resolutionRepo := persistence.NewGormResolutionRepository(db.DB)
	productLinks := persistence.NewGormProductLinkRepository(db.DB)

	shopify, err := ecommerce.NewShopifyAdapter(shopifyConfig(cfg))
	if err != nil {
		log.Fatal("Failed to configure Shopify adapter", zap.Error(err))
	}
	conflicts := appintegration.NewConflictResolutionService(resolutionRepo, log)
	engine := appintegration.NewSyncService(
		jobRepo, shopify, productLinks, conflicts,
		integration.ResolutionStrategy(cfg.Sync.Strategy), log)

	manager, err := scheduler.NewSyncJobManager(
		syncManagerConfig(cfg), engine, jobRepo, scheduleRepo, log)
	if err != nil {
		log.Fatal("Failed to create sync job manager", zap.Error(err))
	}

	if err := manager.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync job manager", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down sync worker...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncWorker.DrainTimeout+10*time.Second)
	defer cancel()

	if err := manager.Stop(ctx); err != nil {
		log.Fatal("Sync worker forced to shutdown", zap.Error(err))
	}

	log.Info("Sync worker exited gracefully")
}

// shopifyConfig maps the app config onto the adapter's config. Without
// configured credentials the adapter reports the platform as not
// configured per integration instead of failing startup.
func shopifyConfig(cfg *config.Config) *ecommerce.ShopifyConfig {
	if cfg.Sync.Shopify.ShopDomain == "" {
		return nil
	}
	shopify := ecommerce.NewShopifyConfig(cfg.Sync.Shopify.ShopDomain, cfg.Sync.Shopify.AccessToken)
	shopify.WebhookSecret = cfg.Sync.Shopify.WebhookSecret
	if cfg.Sync.Shopify.APIVersion != "" {
		shopify.APIVersion = cfg.Sync.Shopify.APIVersion
	}
	return shopify
}

// syncManagerConfig maps the worker config onto the manager's config
func syncManagerConfig(cfg *config.Config) scheduler.SyncJobManagerConfig {
	managerCfg := scheduler.DefaultSyncJobManagerConfig()
	if cfg.SyncWorker.WorkerID != "" {
		managerCfg.WorkerID = cfg.SyncWorker.WorkerID
	}
	managerCfg.PollInterval = cfg.SyncWorker.PollInterval
	managerCfg.MaxConcurrentJobs = cfg.SyncWorker.MaxConcurrentJobs
	managerCfg.ClaimLease = cfg.SyncWorker.ClaimLease
	managerCfg.ScheduleSweepInterval = cfg.SyncWorker.ScheduleSweepInterval
	managerCfg.StaleSweepInterval = cfg.SyncWorker.StaleSweepInterval
	managerCfg.DrainTimeout = cfg.SyncWorker.DrainTimeout
	return managerCfg
}
