package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/application/automation"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
	"github.com/shopflow/backend/internal/infrastructure/cache"
	"github.com/shopflow/backend/internal/infrastructure/config"
	"github.com/shopflow/backend/internal/infrastructure/ecommerce"
	"github.com/shopflow/backend/internal/infrastructure/logger"
	"github.com/shopflow/backend/internal/infrastructure/persistence"
	"github.com/shopflow/backend/internal/infrastructure/scheduler"
	"github.com/shopflow/backend/internal/interfaces/http/handler"
	"github.com/shopflow/backend/internal/interfaces/http/middleware"
	"github.com/shopflow/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ShopFlow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithZapLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	shopRepo := persistence.NewGormShopRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	shopeeCfg := buildShopeeConfig(cfg)
	adapter, err := ecommerce.NewShopeeAdapter(shopeeCfg)
	if err != nil {
		log.Fatal("Failed to initialize marketplace adapter", zap.Error(err))
	}
	verifier := ecommerce.NewShopeeWebhookVerifier()

	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	var dedupe shared.IdempotencyStore = shared.NopIdempotencyStore{}
	switch {
	case !cfg.Idempotency.Enabled:
		log.Warn("Webhook deduplication disabled")
	case cfg.Idempotency.UseRedis:
		dedupe, err = storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
	default:
		dedupe = storeFactory.CreateInMemoryStore()
	}
	defer func() {
		if err := dedupe.Close(); err != nil {
			log.Error("Failed to close idempotency store", zap.Error(err))
		}
	}()

	refresher := automation.NewTokenRefresher(shopRepo, adapter, auditRepo, log)
	pipeline := automation.NewFulfillmentPipeline(orderRepo, productRepo, auditRepo, adapter, refresher, log)
	responder := automation.NewRatingResponder(auditRepo, adapter, refresher, dedupe, cfg.Idempotency.TTL, log)
	rotator := automation.NewBoostRotator(shopRepo, productRepo, auditRepo, adapter, refresher, cfg.Scheduler.BoostSlots, log)
	dispatcher := automation.NewWebhookDispatcher(shopRepo, verifier, pipeline, responder, auditRepo, dedupe, cfg.Idempotency.TTL, log)
	onboarding := automation.NewShopOnboarding(shopRepo, adapter, auditRepo,
		cfg.Marketplace.PartnerID, cfg.Marketplace.PartnerKey, cfg.Marketplace.RedirectURL, log)
	productSync := automation.NewProductSync(productRepo, adapter, refresher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		boostSched   *scheduler.BoostScheduler
		boostTrigger *scheduler.BoostTrigger
	)
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultBoostSchedulerConfig()
		schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
		schedCfg.RotationInterval = cfg.Scheduler.BoostInterval

		executor := scheduler.BoostExecutorFunc(func(ctx context.Context, job *scheduler.BoostJob) error {
			result, err := rotator.RotateShopByID(ctx, job.MarketplaceShopID)
			if err != nil {
				return err
			}
			job.Complete(result.Selected, result.Accepted, result.Failed)
			return nil
		})

		boostSched, err = scheduler.NewBoostScheduler(schedCfg, executor, log)
		if err != nil {
			log.Fatal("Failed to initialize boost scheduler", zap.Error(err))
		}
		if err := boostSched.Start(ctx); err != nil {
			log.Fatal("Failed to start boost scheduler", zap.Error(err))
		}

		boostTrigger = scheduler.NewBoostTrigger(boostSched,
			&boostableShops{shops: shopRepo},
			cfg.Scheduler.BoostInterval, log)
		if err := boostTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start boost trigger", zap.Error(err))
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.BodyLimit(cfg.Webhook.MaxBodySize),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	router.NewRouter(engine).
		Register(handler.NewWebhookHandler(dispatcher, cfg.Webhook.PublicURL, log)).
		Register(handler.NewAuthHandler(onboarding, log)).
		Register(handler.NewProductSyncHandler(shopRepo, productSync, log)).
		Register(handler.NewBoostHandler(rotator, log)).
		Register(handler.NewAuditLogHandler(auditRepo, log)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if boostTrigger != nil {
		if err := boostTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Boost trigger shutdown failed", zap.Error(err))
		}
	}
	if boostSched != nil {
		if err := boostSched.Stop(shutdownCtx); err != nil {
			log.Error("Boost scheduler shutdown failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}

// buildShopeeConfig derives the adapter configuration from application
// settings, keeping the sandbox/production defaults unless overridden.
func buildShopeeConfig(cfg *config.Config) *ecommerce.ShopeeConfig {
	sc := ecommerce.NewShopeeConfig()
	if cfg.Marketplace.Sandbox {
		sc = ecommerce.NewSandboxShopeeConfig()
	}
	if cfg.Marketplace.APIBaseURL != "" {
		sc.APIBaseURL = cfg.Marketplace.APIBaseURL
	}
	if cfg.Marketplace.TimeoutSeconds > 0 {
		sc.TimeoutSeconds = cfg.Marketplace.TimeoutSeconds
	}
	return sc
}

// boostableShops adapts the shop repository to the scheduler's trigger,
// exposing only active shops with auto-boost enabled.
type boostableShops struct {
	shops shop.Repository
}

func (p *boostableShops) ListBoostableShops(ctx context.Context) ([]scheduler.ShopRef, error) {
	active, err := p.shops.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]scheduler.ShopRef, 0, len(active))
	for _, sh := range active {
		if !sh.Settings.AutoBoost {
			continue
		}
		refs = append(refs, scheduler.ShopRef{ID: sh.ID, MarketplaceShopID: sh.MarketplaceShopID})
	}
	return refs, nil
}
