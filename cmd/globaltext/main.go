package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"globaltext/internal/api"
	"globaltext/internal/api/handlers"
	"globaltext/internal/repository"
	"globaltext/internal/service"
	"globaltext/migrations"
	"globaltext/pkg/auth"
	"globaltext/pkg/config"
	"globaltext/pkg/logger"
	"globaltext/pkg/payment"
	"globaltext/pkg/postgres"
	"globaltext/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title GlobalText API
// @version 1.0
// @description Translation marketplace: clients upload documents, approved translators claim and deliver them, admins review and pay out.

// @contact.name API Support
// @contact.email support@globaltext.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting GlobalText service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db, migrations.FS, logger.Named("migrate")); err != nil {
			appLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	objects, err := storage.NewMinioStorage(&cfg.Storage, logger.Named("storage"))
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		appLogger.Fatal("Failed to prepare bucket", zap.Error(err))
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db, appLogger)
	translationRepo := repository.NewTranslationRepository(db, appLogger)
	applicationRepo := repository.NewApplicationRepository(db, appLogger)
	subscriptionRepo := repository.NewSubscriptionRepository(db, appLogger)
	withdrawalRepo := repository.NewWithdrawalRepository(db, appLogger)
	notificationRepo := repository.NewNotificationRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(profileRepo, jwtManager, logger.Named("auth"))
	if cfg.Admin.Email != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			appLogger.Fatal("Failed to bootstrap admin", zap.Error(err))
		}
		appLogger.Info("Admin account ready", zap.String("email", cfg.Admin.Email))
	}

	translator, err := service.NewTranslator(ctx, &cfg.MT, logger.Named("mt"))
	if err != nil {
		appLogger.Fatal("Failed to initialize machine translation", zap.Error(err))
	}
	if closer, ok := translator.(io.Closer); ok {
		defer closer.Close()
	}

	plans, err := service.LoadPlanCatalog(cfg.Pricing.PlansFile)
	if err != nil {
		appLogger.Fatal("Failed to load plans", zap.Error(err))
	}
	primary, others, err := paymentGateways(&cfg.Payments)
	if err != nil {
		appLogger.Fatal("Failed to initialize payments", zap.Error(err))
	}

	lifecycle := service.NewLifecycleService(translationRepo, profileRepo, objects, logger.Named("lifecycle"))
	extractor := service.NewExtractionService(cfg.Intake.OCRLanguages, logger.Named("extraction"))
	intake := service.NewIntakeService(translationRepo, subscriptionRepo, profileRepo, extractor, objects,
		cfg.Pricing.PricePerWord, cfg.Payments.Currency, logger.Named("intake"))
	mt := service.NewMachineTranslationService(translator, lifecycle, profileRepo, cfg.MT.Timeout, logger.Named("mt"))
	applications := service.NewApplicationService(applicationRepo, profileRepo, objects, logger.Named("applications"))
	ledger := service.NewBalanceLedger(withdrawalRepo, profileRepo, logger.Named("ledger"))
	billing := service.NewBillingService(primary, others, plans, translationRepo, subscriptionRepo, profileRepo,
		lifecycle, cfg.Payments.Currency, logger.Named("billing"))
	notifications := service.NewNotificationService(notificationRepo, logger.Named("notifications"))
	admin := service.NewAdminService(profileRepo, translationRepo, subscriptionRepo, withdrawalRepo, applicationRepo, logger.Named("admin"))

	listener := postgres.NewListener(db, service.FeedChannel, logger.Named("listener"))
	feed := service.NewAvailabilityFeed(translationRepo, profileRepo, listener, cfg.Feed.PollInterval, logger.Named("feed"))

	// Initialize handlers
	maxUpload := int64(cfg.Storage.MaxUploadMB) * 1024 * 1024
	app := api.SetupRouter(api.Handlers{
		Auth:          handlers.NewAuthHandler(authService, service.NewRouteGuard(profileRepo, applicationRepo), appLogger),
		Translations:  handlers.NewTranslationHandler(lifecycle, intake, mt, maxUpload, appLogger),
		Feed:          handlers.NewFeedHandler(feed, appLogger),
		Withdrawals:   handlers.NewWithdrawalHandler(ledger, appLogger),
		Applications:  handlers.NewApplicationHandler(applications, maxUpload, appLogger),
		Billing:       handlers.NewBillingHandler(billing, appLogger),
		Notifications: handlers.NewNotificationHandler(notifications, appLogger),
		Admin:         handlers.NewAdminHandler(admin, appLogger),
	}, jwtManager, &cfg.Server, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		err := feed.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service stopped with error", zap.Error(err))
	}
}

// paymentGateways returns the configured checkout gateway plus any other
// gateway with credentials, so webhooks from either are accepted.
func paymentGateways(cfg *config.PaymentsConfig) (payment.Gateway, []payment.Gateway, error) {
	stripe := payment.NewStripeGateway(cfg)
	midtrans := payment.NewMidtransGateway(cfg)

	switch cfg.Provider {
	case "stripe":
		var others []payment.Gateway
		if cfg.MidtransServerKey != "" {
			others = append(others, midtrans)
		}
		return stripe, others, nil
	case "midtrans":
		var others []payment.Gateway
		if cfg.StripeSecretKey != "" {
			others = append(others, stripe)
		}
		return midtrans, others, nil
	}
	return nil, nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
}
