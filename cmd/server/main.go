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
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	checkoutapp "github.com/bazaar/backend/internal/application/checkout"
	appgateway "github.com/bazaar/backend/internal/application/gateway"
	inventoryapp "github.com/bazaar/backend/internal/application/inventory"
	orderapp "github.com/bazaar/backend/internal/application/order"
	settlementapp "github.com/bazaar/backend/internal/application/settlement"
	vendorapp "github.com/bazaar/backend/internal/application/vendor"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	domainvendor "github.com/bazaar/backend/internal/domain/vendor"
	"github.com/bazaar/backend/internal/infrastructure/auth"
	"github.com/bazaar/backend/internal/infrastructure/config"
	"github.com/bazaar/backend/internal/infrastructure/event"
	"github.com/bazaar/backend/internal/infrastructure/gateway"
	"github.com/bazaar/backend/internal/infrastructure/lock"
	"github.com/bazaar/backend/internal/infrastructure/logger"
	"github.com/bazaar/backend/internal/infrastructure/notification"
	"github.com/bazaar/backend/internal/infrastructure/persistence"
	"github.com/bazaar/backend/internal/infrastructure/scheduler"
	"github.com/bazaar/backend/internal/infrastructure/storage"
	"github.com/bazaar/backend/internal/infrastructure/telemetry"
	"github.com/bazaar/backend/internal/interfaces/http/handler"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
	"github.com/bazaar/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting bazaar backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabaseWithOptions(&cfg.Database, persistence.Options{
		LogLevel: gormLogLevel(cfg.Log.Level),
		Tracing:  tracerProvider.IsEnabled() && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Distributed lock for the nightly reconciliation run. A single-node
	// deployment without Redis falls back to a process-local lock.
	var locker settlementapp.Locker
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
		locker = lock.NewRedisLocker(redisClient, "bazaar")
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	} else {
		locker = lock.NewInMemoryLocker()
		log.Warn("Redis not configured, using in-process locks")
	}

	// Repositories and transaction scopes
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	stockRepo := persistence.NewGormVariantStockRepository(db.DB)
	checkoutScope := persistence.NewGormCheckoutScope(db.DB)
	orderScope := persistence.NewGormOrderScope(db.DB)
	settlementScope := persistence.NewGormSettlementScope(db.DB)

	// Gateways
	catalog := gateway.NewGormProductCatalog(db.DB)
	payments, payoutProcessor := buildStripe(cfg, vendorRepo, log)
	taxes := gateway.NewFlatRateTaxCalculator(
		decimal.NewFromFloat(cfg.Pricing.TaxRate),
		countryRates(cfg.Pricing.TaxRateByCountry),
	)
	shipping := gateway.NewTableShippingResolver(
		valueobject.NewMoney(cfg.Pricing.ShippingFeeCents),
		valueobject.NewMoney(cfg.Pricing.FreeShippingAboveCents),
	)
	documents := buildDocumentStore(ctx, cfg, log)

	// Application services
	cartService := checkoutapp.NewCartService(checkoutScope, catalog, cfg.Cart.TTL, cfg.Cart.ReservationTTL)
	checkoutService := checkoutapp.NewCheckoutService(checkoutScope, vendorRepo, payments, taxes, shipping, checkoutapp.Config{
		Currency:            cfg.App.Currency,
		CodFee:              valueobject.NewMoney(cfg.Settlement.CodFeeCents),
		OrderReservationTTL: cfg.Cart.OrderReservationTTL,
	})
	orderService := orderapp.NewOrderService(orderScope, payments, cfg.Settlement.HoldbackPeriod)
	vendorService := vendorapp.NewVendorService(vendorRepo, documents)
	payoutService := settlementapp.NewPayoutService(settlementScope, payoutProcessor, settlementapp.PayoutConfig{
		FeeRate: decimal.NewFromFloat(cfg.Payout.FeeRate),
		FeeFlat: valueobject.NewMoney(cfg.Payout.FeeFlat),
	})
	reconciliationService := settlementapp.NewReconciliationService(settlementScope, locker, log)
	earningSweepService := settlementapp.NewEarningSweepService(settlementScope, log, cfg.Settlement.PromoteBatchSize)
	reservationSweepService := inventoryapp.NewReservationSweepService(reservationRepo, stockRepo, log, cfg.Cart.SweepBatchSize)

	// Event bus relaying domain events to the log and, when configured, Kafka
	eventBus := event.NewInMemoryEventBus(log)
	sinks := []notification.Sink{notification.NewLogSink(log)}
	if cfg.Kafka.Enabled {
		kafkaSink := notification.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				log.Error("Error closing kafka producer", zap.Error(err))
			}
		}()
		sinks = append(sinks, kafkaSink)
		log.Info("Kafka event publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	eventBus.Subscribe(notification.NewEventRelay(log, sinks...))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	checkoutService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	payoutService.SetEventPublisher(eventBus)
	reconciliationService.SetEventPublisher(eventBus)
	earningSweepService.SetEventPublisher(eventBus)
	reservationSweepService.SetEventPublisher(eventBus)

	// Background jobs
	if cfg.Scheduler.Enabled {
		runner := scheduler.NewRunner(cfg.Scheduler.JobTimeout, log,
			scheduler.NewReservationSweepJob(reservationSweepService, cfg.Cart.SweepInterval, log),
			scheduler.NewEarningPromotionJob(earningSweepService, cfg.Settlement.PromoteInterval, log),
		)
		if err := runner.Start(ctx); err != nil {
			log.Fatal("Failed to start job runner", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := runner.Stop(stopCtx); err != nil {
				log.Error("Error stopping job runner", zap.Error(err))
			}
		}()

		loc, err := time.LoadLocation(cfg.Settlement.ReconcileTimezone)
		if err != nil {
			log.Fatal("Invalid reconcile timezone", zap.Error(err))
		}
		reconcileTrigger := scheduler.NewReconciliationTrigger(reconciliationService, scheduler.DailyTriggerConfig{
			Hour:     cfg.Settlement.ReconcileHour,
			Minute:   cfg.Settlement.ReconcileMinute,
			Location: loc,
		}, log)
		if err := reconcileTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := reconcileTrigger.Stop(stopCtx); err != nil {
				log.Error("Error stopping reconciliation trigger", zap.Error(err))
			}
		}()
		log.Info("Background jobs started",
			zap.Duration("sweep_interval", cfg.Cart.SweepInterval),
			zap.Duration("promote_interval", cfg.Settlement.PromoteInterval),
			zap.Int("reconcile_hour", cfg.Settlement.ReconcileHour),
		)
	}

	// JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Setup(router.Config{
		Handlers: router.Handlers{
			System:         handler.NewSystemHandler(db.DB),
			Cart:           handler.NewCartHandler(cartService),
			Checkout:       handler.NewCheckoutHandler(checkoutService),
			Order:          handler.NewOrderHandler(orderService),
			Vendor:         handler.NewVendorHandler(vendorService),
			Payout:         handler.NewPayoutHandler(payoutService),
			Reconciliation: handler.NewReconciliationHandler(reconciliationService),
		},
		JWTService: jwtService,
		Logger:     log,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tracerProvider.IsEnabled(),
	})

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildStripe wires the card gateway and payout processor. Without an API
// key card checkout is rejected and payout processing fails fast.
func buildStripe(cfg *config.Config, vendors domainvendor.Repository, log *zap.Logger) (appgateway.PaymentGateway, settlementapp.PayoutProcessor) {
	if cfg.Stripe.APIKey == "" {
		log.Warn("Stripe not configured, card payments and payouts disabled")
		return gateway.NewDisabledGateway(), gateway.NewDisabledPayoutProcessor()
	}

	stripeGateway, err := gateway.NewStripeGateway(&gateway.StripeConfig{
		APIKey:        cfg.Stripe.APIKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.App.Currency,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Stripe", zap.Error(err))
	}
	processor := gateway.NewStripePayoutProcessor(vendors, cfg.App.Currency, log)
	return stripeGateway, processor
}

// buildDocumentStore wires KYC document storage, S3 when configured
func buildDocumentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) appgateway.DocumentStore {
	if cfg.S3.Bucket == "" {
		log.Warn("S3 not configured, storing KYC documents in memory")
		return storage.NewInMemoryDocumentStore()
	}
	store, err := storage.NewS3DocumentStore(ctx, cfg.S3, log)
	if err != nil {
		log.Fatal("Failed to initialize S3 document store", zap.Error(err))
	}
	return store
}

// countryRates converts float config overrides into decimals
func countryRates(in map[string]float64) map[string]decimal.Decimal {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for country, rate := range in {
		out[country] = decimal.NewFromFloat(rate)
	}
	return out
}

// gormLogLevel maps the app log level onto GORM's logger
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
