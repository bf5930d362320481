package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appintegration "github.com/commercehub/backend/internal/application/integration"
	apppricing "github.com/commercehub/backend/internal/application/pricing"
	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/cache"
	"github.com/commercehub/backend/internal/infrastructure/config"
	"github.com/commercehub/backend/internal/infrastructure/ecommerce"
	"github.com/commercehub/backend/internal/infrastructure/logger"
	"github.com/commercehub/backend/internal/infrastructure/persistence"
	"github.com/commercehub/backend/internal/infrastructure/scheduler"
	"github.com/commercehub/backend/internal/interfaces/http/handler"
	"github.com/commercehub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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

	log.Info("Starting CommerceHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with GORM logging routed through zap
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
	log.Info("Database connected successfully")

	// Price result cache
	priceCache, err := buildPriceCache(cfg, log)
	if err != nil {
		log.Fatal("Failed to create price cache", zap.Error(err))
	}
	defer func() {
		if err := priceCache.Close(); err != nil {
			log.Error("Error closing price cache", zap.Error(err))
		}
	}()

	// Repositories
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	auditLogger := persistence.NewGormAuditLogger(db.DB)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	resolutionRepo := persistence.NewGormResolutionRepository(db.DB)
	productLinks := persistence.NewGormProductLinkRepository(db.DB)

	// Pricing pipeline
	evaluator := apppricing.NewRuleEvaluator(ruleRepo, log)
	calculator := apppricing.NewPriceCalculator(apppricing.CalculatorConfig{
		CacheTTL:   cfg.Cache.TTL,
		BatchWidth: cfg.Pricing.BatchWidth,
	}, evaluator, priceCache, auditLogger, log)

	// Sync engine against the Shopify platform
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

	// The server can run the worker loops itself for single-process
	// deployments; dedicated workers run cmd/worker instead.
	if cfg.SyncWorker.Enabled {
		if err := manager.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync job manager", zap.Error(err))
		}
		defer func() {
			if err := manager.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync job manager", zap.Error(err))
			}
		}()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engineHTTP := router.New(log, router.Handlers{
		Pricing: handler.NewPricingHandler(calculator),
		Sync:    handler.NewSyncHandler(manager, jobRepo),
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engineHTTP.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildPriceCache creates the configured price cache backend
func buildPriceCache(cfg *config.Config, log *zap.Logger) (cache.PriceCache, error) {
	factory := cache.NewPriceCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cache.AllowFallback),
	)
	if cfg.Cache.Backend == "memory" {
		return factory.CreateMemoryCache(), nil
	}
	return factory.CreateCache()
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
