package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"recomendaleads/config"
	controller "recomendaleads/controllers"
	"recomendaleads/middleware"
	"recomendaleads/routes"
	"recomendaleads/utils"
	"recomendaleads/worker"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: config.AppConfig.SentryDSN}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	controller.InitStripe()
	controller.InitGoogleOAuth()

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	// WhatsApp provider client, status hub and poller. The poller reports
	// terminal status changes back through the controller, which persists
	// them and pushes them to open dashboards.
	whatsappClient := utils.NewWhatsAppClient(config.AppConfig.WhatsApp)
	hub := controller.NewStatusHub(log.New(os.Stdout, "WS: ", log.LstdFlags))
	whatsappController := controller.NewWhatsAppController(
		config.DB, whatsappClient, nil, hub, log.New(os.Stdout, "WHATSAPP: ", log.LstdFlags))
	poller := worker.NewStatusPoller(
		whatsappClient,
		config.AppConfig.WhatsApp.PollInterval,
		log.New(os.Stdout, "POLLER: ", log.LstdFlags),
		whatsappController.OnStatusChange,
	)
	whatsappController.Poller = poller
	defer poller.Stop()

	// Follow-up worker delivers the agents' timed follow-up messages
	followUpWorker := worker.NewFollowUpWorker(
		config.DB, whatsappClient, log.New(os.Stdout, "FOLLOWUP: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go followUpWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, whatsappClient, whatsappController, hub)

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
