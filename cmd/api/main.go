package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/finman-io/finman-gateway/internal/application/service"
	"github.com/finman-io/finman-gateway/internal/config"
	"github.com/finman-io/finman-gateway/internal/infrastructure/database"
	"github.com/finman-io/finman-gateway/internal/infrastructure/receiptapi"
	"github.com/finman-io/finman-gateway/internal/infrastructure/repository"
	"github.com/finman-io/finman-gateway/internal/presentation/http/handler"
	"github.com/finman-io/finman-gateway/internal/presentation/http/routes"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	draftRepo := repository.NewDraftRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize receipt service client
	receiptGateway := receiptapi.NewClient(&cfg.ReceiptAPI)

	// Initialize services
	receiptService := service.NewReceiptService(receiptGateway)
	draftService := service.NewDraftService(draftRepo, receiptGateway, cfg.Tax.DefaultRate)

	// Initialize handlers
	handlers := &routes.Handlers{
		Receipt: handler.NewReceiptHandler(receiptService),
		Draft:   handler.NewDraftHandler(draftService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)
	log.Printf("Receipt service: %s", cfg.ReceiptAPI.BaseURL)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
