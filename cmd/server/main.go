package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/config"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/database"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/logging"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/metrics"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/routes"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/services"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.AppEnv)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		logger.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(cfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.CloseDB()
	logger.Info().Msg("Connected to PostgreSQL")

	metrics.Register()

	// 3. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB, logger)

	// 4. Background reclaim of abandoned pending-payment reservations
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(database.DB, cfg.PendingPaymentLease, cfg.SweepInterval, logger)
	go sweeper.Start(ctx)

	// 5. Start Server
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down")
		_ = app.Shutdown()
	}()

	logger.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
