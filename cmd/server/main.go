package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	httpapi "carrental-backend/internal/api/http"
	"carrental-backend/internal/config"
	"carrental-backend/internal/inventory"
	"carrental-backend/internal/logger"
	"carrental-backend/internal/repository/postgres"
	"carrental-backend/internal/security"
	"carrental-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Car Rental Reservation Service...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Inventory configuration", "base_url", cfg.Inventory.BaseURL, "timeout_seconds", cfg.Inventory.TimeoutSeconds)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Initialize Inventory Gateway
	inventoryClient := inventory.NewClient(
		cfg.Inventory.BaseURL,
		time.Duration(cfg.Inventory.TimeoutSeconds)*time.Second,
		tokenManager,
	)

	pendingHoldTTL := time.Duration(cfg.Reservation.PendingHoldMinutes) * time.Minute

	// Initialize Email Service
	emailSvc := service.NewSendGridEmailService(
		cfg.SendGrid.APIKey,
		cfg.SendGrid.FromEmail,
		cfg.SendGrid.FromName,
		pendingHoldTTL,
	)

	// Initialize Services
	pricingSvc := service.NewPricingService(
		store.RatePlanRepository,
		store.PricingRuleRepository,
		inventoryClient,
	)
	reservationSvc := service.NewReservationService(
		store.ReservationRepository,
		inventoryClient,
		pricingSvc,
		emailSvc,
		pendingHoldTTL,
	)

	// Initialize HTTP handlers and router
	reservationHandler := httpapi.NewReservationHandler(reservationSvc)
	router := httpapi.NewRouter(reservationHandler, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
