package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/internal/service"
	"globaltext/migrations"
	"globaltext/pkg/auth"
	"globaltext/pkg/config"
	"globaltext/pkg/logger"
	"globaltext/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const demoPassword = "globaltext-demo"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	if cfg.Admin.Email == "" {
		appLogger.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required for seeding")
	}

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, migrations.FS, logger.Named("migrate")); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	profileRepo := repository.NewProfileRepository(db, appLogger)
	applicationRepo := repository.NewApplicationRepository(db, appLogger)
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	authService := service.NewAuthService(profileRepo, jwtManager, appLogger)

	appLogger.Info("Starting database seeding...")

	adminID, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		appLogger.Fatal("Failed to seed admin", zap.Error(err))
	}
	appLogger.Info("Admin ready", zap.String("email", cfg.Admin.Email), zap.String("profile_id", adminID.String()))

	if os.Getenv("SEED_DEMO") == "true" {
		// CVs are links here, so the application flow never touches object storage
		applications := service.NewApplicationService(applicationRepo, profileRepo, nil, appLogger)
		if err := seedDemo(ctx, authService, applications, profileRepo, adminID, appLogger); err != nil {
			appLogger.Fatal("Failed to seed demo profiles", zap.Error(err))
		}
	}

	appLogger.Info("Database seeding completed successfully!")
}

// seedDemo registers a client and a translator, then walks the translator
// through the application flow so they can claim jobs right away.
func seedDemo(
	ctx context.Context,
	authService *service.AuthService,
	applications *service.ApplicationService,
	profiles *repository.ProfileRepository,
	adminID uuid.UUID,
	log *zap.Logger,
) error {
	if _, err := register(ctx, authService, profiles, "client@globaltext.demo", "Demo", "Client", models.RoleClient); err != nil {
		return err
	}
	translator, err := register(ctx, authService, profiles, "translator@globaltext.demo", "Demo", "Translator", models.RoleTranslator)
	if err != nil {
		return err
	}
	if translator.IsApprovedTranslator {
		log.Info("Demo translator already approved")
		return nil
	}

	app, err := applications.Submit(ctx, translator.ID, service.ApplicationInput{
		FullName:          "Demo Translator",
		YearsOfExperience: 5,
		Languages:         []string{"en", "pt-BR", "es"},
		CVURL:             "https://globaltext.demo/cv/demo-translator.pdf",
	})
	if errors.Is(err, service.ErrConflict) {
		log.Info("Demo application already pending, approving the latest")
		app, err = applications.Mine(ctx, translator.ID)
	}
	if err != nil {
		return fmt.Errorf("submit application: %w", err)
	}

	note := "seeded"
	if _, err := applications.Approve(ctx, adminID, app.ID, &note); err != nil {
		return fmt.Errorf("approve application: %w", err)
	}
	log.Info("Demo translator approved", zap.String("profile_id", translator.ID.String()))
	return nil
}

func register(
	ctx context.Context,
	authService *service.AuthService,
	profiles *repository.ProfileRepository,
	email, firstName, lastName string,
	role models.Role,
) (*models.Profile, error) {
	_, err := authService.Register(ctx, &dto.RegisterRequest{
		Email:     email,
		Password:  demoPassword,
		FirstName: firstName,
		LastName:  lastName,
		Role:      string(role),
	})
	if err != nil && !errors.Is(err, service.ErrConflict) {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	return profiles.GetByEmail(ctx, email)
}
