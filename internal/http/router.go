package http

import (
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/http/handlers"
	"github.com/campaign-manager/backend/internal/middleware"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Campaign  *handlers.CampaignHandler
	Lead      *handlers.LeadHandler
	Analytics *handlers.AnalyticsHandler
	Platform  *handlers.PlatformHandler
	WS        *handlers.WSHub
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authn middleware.Authenticator,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.Metrics())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))
	protect := middleware.Protect(authn, log)

	// Auth
	api.Post("/auth/register", h.Auth.Register)
	api.Post("/auth/login", h.Auth.Login)
	api.Post("/auth/forgotpassword", h.Auth.ForgotPassword)
	api.Put("/auth/resetpassword/:resettoken", h.Auth.ResetPassword)
	api.Get("/auth/me", protect, h.Auth.Me)
	api.Get("/auth/logout", protect, h.Auth.Logout)
	api.Put("/auth/updatepassword", protect, h.Auth.UpdatePassword)

	// Users
	users := api.Group("/users", protect)
	users.Get("/profile", h.User.GetProfile)
	users.Put("/profile", h.User.UpdateProfile)
	users.Get("/", middleware.Authorize(models.RoleAdmin), h.User.ListUsers)

	// Campaigns
	campaigns := api.Group("/campaigns", protect)
	campaigns.Post("/", h.Campaign.CreateCampaign)
	campaigns.Get("/", h.Campaign.ListCampaigns)
	campaigns.Get("/:id", h.Campaign.GetCampaign)
	campaigns.Put("/:id", h.Campaign.UpdateCampaign)
	campaigns.Delete("/:id", h.Campaign.DeleteCampaign)
	campaigns.Get("/:id/metrics", h.Campaign.GetMetrics)
	campaigns.Get("/:id/leads", h.Campaign.GetLeads)
	campaigns.Get("/:id/activity", h.Campaign.GetActivity)
	campaigns.Post("/:id/publish", h.Campaign.Publish)
	campaigns.Post("/:id/sync", h.Campaign.SyncMetrics)
	campaigns.Post("/:id/import-leads", h.Campaign.ImportLeads)

	// Leads
	leads := api.Group("/leads", protect)
	leads.Post("/", h.Lead.CreateLead)
	leads.Get("/", h.Lead.ListLeads)
	leads.Get("/:id", h.Lead.GetLead)
	leads.Put("/:id", h.Lead.UpdateLead)
	leads.Delete("/:id", h.Lead.DeleteLead)

	// Analytics
	analytics := api.Group("/analytics", protect)
	analytics.Get("/dashboard", h.Analytics.Dashboard)
	analytics.Get("/campaigns/:id/performance", h.Analytics.CampaignPerformance)
	analytics.Get("/leads", h.Analytics.Leads)

	// Platforms
	platforms := api.Group("/platforms", protect)
	platforms.Get("/connections", h.Platform.ListConnections)
	platforms.Post("/:platform/connect", h.Platform.Connect)
	platforms.Delete("/:platform/disconnect", h.Platform.Disconnect)

	// WebSocket
	if h.WS != nil {
		app.Use("/ws", h.WS.UpgradeMiddleware())
		app.Get("/ws", websocket.New(h.WS.HandleWS))
	}
}

// NewApp returns a fiber app whose unmatched errors use the failure envelope.
func NewApp(log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "campaign-manager",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = strings.ToLower(e.Message)
			} else {
				log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
		},
	})
}
