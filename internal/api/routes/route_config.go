package routes

import (
	"stash-backend/internal/api/handlers"
	"stash-backend/internal/middleware"
	"stash-backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App              *fiber.App
	ReceiptHandler   handlers.ReceiptHandler
	AnalyticsHandler handlers.AnalyticsHandler
	GameHandler      handlers.GameHandler
	WalletHandler    handlers.WalletHandler
	WorkflowHandler  handlers.WorkflowHandler
	Middleware       middleware.Middleware
	JWTService       jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.RecoverMiddleware())
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Receipt()
	c.Analytics()
	c.Game()
	c.Wallet()
	c.Workflow()
}

func (c *Config) GuestRoute() {
	c.App.Get("/health", c.WorkflowHandler.Health)
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/wallet/rewards", c.WalletHandler.GetRewards)
}

func (c *Config) auth() fiber.Handler {
	return c.Middleware.AuthMiddleware(c.JWTService)
}

func (c *Config) paramUser() fiber.Handler {
	return c.Middleware.UserMatch(middleware.ParamUserID)
}

func (c *Config) bodyUser() fiber.Handler {
	return c.Middleware.UserMatch(middleware.BodyUserID)
}

func (c *Config) Receipt() {
	c.App.Post("/upload", c.auth(), c.bodyUser(), c.ReceiptHandler.UploadImage)

	receipt := c.App.Group("/receipt", c.auth())
	receipt.Post("/process-receipt", c.bodyUser(), c.ReceiptHandler.ProcessReceipt)
}

func (c *Config) Analytics() {
	analytics := c.App.Group("/analytics", c.auth())
	analytics.Get("/spending-report/:userId", c.paramUser(), c.AnalyticsHandler.GetSpendingReport)
	analytics.Get("/budget-forecast/:userId", c.paramUser(), c.AnalyticsHandler.GetBudgetForecast)
}

func (c *Config) Game() {
	game := c.App.Group("/game", c.auth())
	game.Post("/award-points", c.bodyUser(), c.GameHandler.AwardPoints)
	game.Get("/achievements/:userId", c.paramUser(), c.GameHandler.GetAchievements)
}

func (c *Config) Wallet() {
	wallet := c.App.Group("/wallet", c.auth())
	wallet.Get("/balance/:userId", c.paramUser(), c.WalletHandler.GetBalance)
	wallet.Get("/transactions/:userId", c.paramUser(), c.WalletHandler.GetTransactions)
	wallet.Get("/redemptions/:userId", c.paramUser(), c.WalletHandler.GetRedemptions)
	wallet.Post("/redeem", c.bodyUser(), c.WalletHandler.Redeem)
	wallet.Post("/reconcile/:userId", c.paramUser(), c.WalletHandler.Reconcile)
}

func (c *Config) Workflow() {
	adk := c.App.Group("/adk", c.auth())
	adk.Post("/receipt/process", c.bodyUser(), c.WorkflowHandler.ProcessReceipt)
	adk.Get("/dashboard/:userId", c.paramUser(), c.WorkflowHandler.GetDashboard)
}
