package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/config"
	"github.com/keymarket/backend/internal/http/handlers"
	"github.com/keymarket/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	productHandler *handlers.ProductHandler,
	orderHandler *handlers.OrderHandler,
	adminHandler *handlers.AdminHandler,
	cronHandler *handlers.CronHandler,
	users middleware.RoleStore,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Scheduler entry point, guarded by the cron secret rather than a user
	// token. GET is allowed because some cron platforms can only issue GETs.
	app.Get("/internal/cron/escrow", cronHandler.SweepEscrow)
	app.Post("/internal/cron/escrow", cronHandler.SweepEscrow)

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)

	// Seller catalog. The exact /products/my route must register before the
	// public /products/:id wildcard.
	protected.Post("/products", productHandler.CreateProduct)
	protected.Get("/products/my", productHandler.MyProducts)
	protected.Post("/products/:id/inventory", productHandler.AddInventoryUnit)

	// Public catalog
	api.Get("/products/:id", productHandler.GetProduct)

	// Orders
	protected.Post("/orders", orderHandler.Checkout)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/confirm", orderHandler.ConfirmOrder)
	protected.Post("/orders/:id/dispute", orderHandler.DisputeOrder)
	protected.Get("/orders/:id/secrets", orderHandler.GetSecrets)

	// Admin
	admin := protected.Group("/admin", middleware.RequireAdmin(users))
	admin.Get("/disputes", adminHandler.ListDisputed)
	admin.Post("/disputes/:id/resolve", adminHandler.ResolveDispute)
	admin.Get("/orders/:id/audit", adminHandler.OrderAudit)
	admin.Get("/stats", adminHandler.GetStats)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
