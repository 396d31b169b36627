package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/scauction/foreclosure-backend/config"
	"github.com/scauction/foreclosure-backend/database"
	"github.com/scauction/foreclosure-backend/handlers"
	"github.com/scauction/foreclosure-backend/jobs"
	"github.com/scauction/foreclosure-backend/services"
	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	cfg.ConfigureLogging()

	// Initialize pipeline services
	fetcher := shared.NewHTTPClientFactory()
	calendarService := services.NewCalendarService()
	parserService := services.NewListingParserService(cfg.CountyURL)
	validatorService := services.NewDocumentValidatorService()

	extractor, err := services.NewBedrockExtractor(cfg.AWSRegion, cfg.ModelID)
	if err != nil {
		log.Fatalf("Failed to initialize Bedrock extractor: %v", err)
	}

	// The store is run-scoped: opened per pipeline run, closed on every exit
	// path.
	openStore := func(ctx context.Context) (jobs.RunStore, error) {
		return database.Open(ctx, cfg.MongoURL)
	}

	auctionJob := jobs.NewAuctionUpdateJob(
		cfg.CountyURL,
		cfg.MongoURL,
		fetcher,
		parserService,
		calendarService,
		validatorService,
		extractor,
		openStore,
	)

	logrus.WithFields(logrus.Fields{
		"county_url": cfg.CountyURL,
		"model_id":   cfg.ModelID,
		"aws_region": cfg.AWSRegion,
	}).Info("Foreclosure auction backend services initialized")

	// Initialize handlers
	pipelineHandler := handlers.NewPipelineHandler(auctionJob, openStore)

	// Start background job: run once on startup, then daily. The month gate
	// makes repeat runs within a cycle skip cheaply.
	go func() {
		auctionJob.Run(context.Background())

		dailyTicker := time.NewTicker(24 * time.Hour)
		for range dailyTicker.C {
			auctionJob.Run(context.Background())
		}
	}()

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")
	api.Post("/auctions/run", pipelineHandler.RunPipeline)
	api.Get("/auctions", pipelineHandler.ListAuctions)

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
