package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "recomendaleads/controllers"
	"recomendaleads/middleware"
	"recomendaleads/utils"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	auth := app.Group("/v1/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	authLogger.Println("Authentication routes initialized successfully")
}

// SetupAPIRoutes mounts the versioned dashboard API. The WhatsApp controller
// arrives prebuilt because its poller callback is wired in main.
func SetupAPIRoutes(app *fiber.App, db *gorm.DB, whatsapp *utils.WhatsAppClient, whatsappController *controller.WhatsAppController, hub *controller.StatusHub) {
	agentController := controller.NewAgentController(db, log.New(os.Stdout, "AGENT: ", log.LstdFlags))
	clientController := controller.NewClientController(db, whatsapp, log.New(os.Stdout, "CLIENT: ", log.LstdFlags))
	recommendationController := controller.NewRecommendationController(db, whatsapp, log.New(os.Stdout, "RECOMMENDATION: ", log.LstdFlags))
	referredController := controller.NewReferredController(db, whatsapp, log.New(os.Stdout, "REFERRED: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	settingsController := controller.NewSettingsController(db, log.New(os.Stdout, "SETTINGS: ", log.LstdFlags))
	campaignController := controller.NewFollowUpCampaignController(db, whatsapp, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	checkoutController := controller.NewCheckoutController(db, log.New(os.Stdout, "CHECKOUT: ", log.LstdFlags))

	// Public checkout endpoint
	app.Post("/criar-pedido", checkoutController.CreateOrder)

	api := app.Group("/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/metrics", dashboardController.GetMetrics)
	dashboard.Get("/activity", dashboardController.GetActivity)

	// Agent routes
	agent := api.Group("/agents")
	agent.Post("/", agentController.CreateAgent)
	agent.Get("/", agentController.GetAgents)
	agent.Get("/:id", agentController.GetAgent)
	agent.Put("/:id", agentController.UpdateAgent)
	agent.Delete("/:id", agentController.DeleteAgent)

	// Client routes
	client := api.Group("/clients")
	client.Post("/", clientController.CreateClient)
	client.Get("/", clientController.GetClients)
	client.Get("/:id", clientController.GetClient)
	client.Put("/:id", clientController.UpdateClient)
	client.Delete("/:id", clientController.DeleteClient)
	client.Post("/:id/start-recommendations", clientController.StartRecommendations)
	client.Get("/:id/timeline", clientController.GetTimeline)

	// Recommendation routes
	recommendation := api.Group("/recommendations")
	recommendation.Post("/", recommendationController.CreateRecommendation)
	recommendation.Get("/", recommendationController.GetRecommendations)
	recommendation.Get("/recent", recommendationController.GetRecentRecommendations)

	// Referred client routes
	referred := api.Group("/referred-clients")
	referred.Get("/", referredController.GetReferredClients)
	referred.Get("/:id", referredController.GetReferredClient)
	referred.Patch("/:id/status", referredController.UpdateReferredStatus)
	referred.Post("/:id/send-offer", referredController.SendOffer)
	referred.Post("/:id/convert", referredController.Convert)

	// WhatsApp connection routes, connect is rate limited
	wa := api.Group("/whatsapp")
	wa.Get("/connection", whatsappController.GetConnection)
	wa.Post("/instance", whatsappController.CreateInstance)
	wa.Post("/connect", middleware.ConnectRateLimiter(), whatsappController.Connect)
	wa.Get("/instance/:token/status", whatsappController.GetStatus)
	wa.Post("/disconnect", whatsappController.Disconnect)

	// Status updates stream for the dashboard
	wa.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wa.Get("/ws", websocket.New(hub.Handle))

	// Follow-up campaign routes
	campaign := api.Group("/follow-up-campaigns")
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Post("/:id/send", campaignController.SendCampaign)
	campaign.Delete("/:id", campaignController.DeleteCampaign)

	// Settings routes
	settings := api.Group("/settings")
	settings.Get("/", settingsController.GetSettings)
	settings.Put("/", settingsController.UpdateSettings)
}

func SetupRoutes(app *fiber.App, db *gorm.DB, whatsapp *utils.WhatsAppClient, whatsappController *controller.WhatsAppController, hub *controller.StatusHub) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes must register before the guarded /v1 group so login and
	// register match ahead of the JWT middleware.
	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db, whatsapp, whatsappController, hub)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found", nil)
	})
}
