package api

import (
	"time"

	"globaltext/docs"
	"globaltext/internal/api/handlers"
	"globaltext/internal/service"
	"globaltext/pkg/auth"
	"globaltext/pkg/config"
	"globaltext/pkg/middleware"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Translations  *handlers.TranslationHandler
	Feed          *handlers.FeedHandler
	Withdrawals   *handlers.WithdrawalHandler
	Applications  *handlers.ApplicationHandler
	Billing       *handlers.BillingHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	cfg *config.ServerConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "globaltext",
		ReadTimeout:  cfg.ReadTimeout,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(appLogger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders: middleware.HeaderRequestID,
	}))

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	// Public
	authRoutes := v1.Group("/auth", limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
	}))
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.RefreshToken)
	v1.Get("/me/route", middleware.OptionalAuth(jwtManager), h.Auth.Route)
	v1.Get("/plans", h.Billing.Plans)

	webhooks := v1.Group("/webhooks")
	webhooks.Post("/stripe", h.Billing.StripeWebhook)
	webhooks.Post("/midtrans", h.Billing.MidtransWebhook)

	// Protected
	protected := v1.Group("", middleware.AuthMiddleware(jwtManager, appLogger))

	protected.Get("/auth/me", h.Auth.Me)
	protected.Put("/auth/me", h.Auth.UpdateProfile)

	protected.Post("/documents/extract", h.Translations.Quote)
	protected.Post("/machine-translate", h.Translations.MachineTranslate)

	translations := protected.Group("/translations")
	translations.Post("", h.Translations.Create)
	translations.Get("", h.Translations.List)
	translations.Get("/:id", h.Translations.Get)
	translations.Get("/:id/files/:kind", h.Translations.FileURL)
	translations.Post("/:id/claim", h.Translations.Claim)
	translations.Post("/:id/decline", h.Translations.Decline)
	translations.Post("/:id/submit", h.Translations.Submit)
	translations.Post("/:id/draft", h.Translations.SaveDraft)
	translations.Post("/:id/machine-translate", h.Translations.PreTranslate)

	feed := protected.Group("/feed", h.Auth.RequireCapability(service.CapabilityTranslator))
	feed.Get("", h.Feed.List)
	feed.Get("/stream", h.Feed.Stream)

	protected.Get("/balance", h.Withdrawals.Balance)
	protected.Post("/withdrawals", h.Withdrawals.Request)
	protected.Get("/withdrawals", h.Withdrawals.ListMine)

	protected.Post("/applications", h.Applications.Submit)
	protected.Get("/applications/mine", h.Applications.Mine)

	protected.Get("/subscriptions/current", h.Billing.CurrentSubscription)
	protected.Post("/billing/checkout", h.Billing.Checkout)

	protected.Get("/notifications", h.Notifications.List)
	protected.Post("/notifications/read-all", h.Notifications.MarkAllRead)
	protected.Post("/notifications/:id/read", h.Notifications.MarkRead)

	// Admin
	admin := protected.Group("/admin", h.Auth.RequireCapability(service.CapabilityAdmin))
	admin.Get("/reviews", h.Translations.ReviewQueue)
	admin.Post("/translations/:id/approve", h.Translations.Approve)
	admin.Post("/translations/:id/reject", h.Translations.Reject)
	admin.Get("/applications", h.Applications.List)
	admin.Post("/applications/:id/approve", h.Applications.Approve)
	admin.Post("/applications/:id/reject", h.Applications.Reject)
	admin.Get("/withdrawals", h.Withdrawals.ListAll)
	admin.Post("/withdrawals/:id/complete", h.Withdrawals.Complete)
	admin.Post("/withdrawals/:id/reject", h.Withdrawals.Reject)
	admin.Get("/users", h.Admin.Users)
	admin.Get("/stats", h.Admin.Stats)

	return app
}
