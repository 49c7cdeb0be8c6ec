package config

import (
	"context"
	"os"
	"time"

	"stash-backend/internal/api/handlers"
	"stash-backend/internal/api/routes"
	"stash-backend/internal/middleware"
	"stash-backend/internal/utils"
	"stash-backend/internal/utils/events"
	"stash-backend/internal/utils/genai"
	"stash-backend/internal/utils/mailing"
	"stash-backend/internal/utils/storage"
	"stash-backend/internal/utils/vision"
	"stash-backend/pkg/analytics"
	"stash-backend/pkg/game"
	"stash-backend/pkg/jwt"
	"stash-backend/pkg/points"
	"stash-backend/pkg/receipt"
	"stash-backend/pkg/wallet"
	"stash-backend/pkg/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	mockReceiptText = "CITY GROCERY\nMilk 3.50\nBread 2.25\nEggs 4.99\nTOTAL $10.74"
	mockReceiptJSON = `{"merchant": "City Grocery", "items": [{"name": "Milk", "price": "3.50"}, {"name": "Bread", "price": "2.25"}, {"name": "Eggs", "price": "4.99"}], "total": "10.74"}`
	mockInsights    = "Most of your spending goes to groceries. Setting a weekly grocery budget is a good first step."
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:           utils.GetConfig("APP_NAME"),
		EnablePrintRoutes: utils.GetConfig("APP_ENV") != "production",
		BodyLimit:         utils.GetConfigInt("MAX_UPLOAD_SIZE_MB", 10) * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware(utils.GetConfigBool("AUTH_REQUIRED", false))
	validator := utils.Validate

	// setting up logging and limiter
	if err := os.MkdirAll("./logs", os.ModePerm); err != nil {
		zap.L().Fatal("error creating logs directory", zap.Error(err))
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		zap.L().Fatal("error opening access log", zap.Error(err))
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
	}))

	callTimeout := utils.GetConfigDuration("EXTERNAL_CALL_TIMEOUT", 30*time.Second)

	// utils
	s3, err := storage.NewAwsS3(context.Background())
	if err != nil {
		zap.L().Warn("object storage disabled", zap.Error(err))
		s3 = nil
	}

	var (
		extractor vision.TextExtractor
		generator genai.TextGenerator
		advisor   genai.TextGenerator
	)
	if utils.GetConfigBool("MOCK_EXTERNAL_APIS", false) {
		zap.L().Info("using canned OCR and LLM responses")
		extractor = vision.NewStaticExtractor(mockReceiptText)
		generator = genai.NewStaticGenerator(mockReceiptJSON)
		advisor = genai.NewStaticGenerator(mockInsights)
	} else {
		extractor = vision.NewVisionClient(vision.Config{
			APIKey:  utils.GetConfig("VISION_API_KEY"),
			Timeout: callTimeout,
		})
		generator = genai.NewGeminiClient(genai.Config{
			APIKey:      utils.GetConfig("GEMINI_API_KEY"),
			Model:       utils.GetConfig("GEMINI_MODEL"),
			Temperature: utils.GetConfigFloat("GENAI_TEMPERATURE", 0.7),
			Timeout:     callTimeout,
		})
		advisor = generator
	}

	publisher := events.NewNopPublisher()
	if addr := utils.GetConfig("REDIS_ADDR"); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		client, err := events.NewRedisClient(ctx, addr, utils.GetConfig("REDIS_PASSWORD"), utils.GetConfigInt("REDIS_DB", 0))
		cancel()
		if err != nil {
			zap.L().Warn("receipt events disabled", zap.Error(err))
		} else {
			publisher = events.NewRedisPublisher(client)
		}
	}

	notifier := wallet.NewNopNotifier()
	if mailConfig := mailing.LoadMailConfig(); mailConfig.Configured() && utils.GetConfig("FULFILLMENT_EMAIL") != "" {
		notifier = wallet.NewMailNotifier(mailing.NewMailer(mailConfig), utils.GetConfig("FULFILLMENT_EMAIL"))
	}

	// Repository
	receiptRepository := receipt.NewReceiptRepository(db)
	walletRepository := wallet.NewWalletRepository(db)

	// Service
	jwtService := jwt.NewJWTService(utils.GetConfig("JWT_SECRET"))
	pointsEngine := points.NewPointsEngine(
		utils.LoadPointsRules(),
		points.NewRandomSource(int64(utils.GetConfigInt("RANDOM_SEED", 0))),
	)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		s3,
		extractor,
		receipt.NewLLMReceiptParser(generator),
		publisher,
		receipt.ServiceConfig{
			MaxDailyReceipts: utils.GetConfigInt("MAX_DAILY_RECEIPTS", 20),
			EventsTopic:      utils.GetConfig("RECEIPT_EVENTS_CHANNEL"),
			CallTimeout:      callTimeout,
		},
	)
	walletService := wallet.NewWalletService(walletRepository, notifier)
	gameService := game.NewGameService(pointsEngine, walletService, receiptService)
	analyticsService := analytics.NewAnalyticsService(receiptRepository, advisor)
	workflowService := workflow.NewWorkflowService(
		receiptService,
		gameService,
		walletService,
		analyticsService,
		workflow.Config{
			BranchTimeout: utils.GetConfigDuration("DASHBOARD_BRANCH_TIMEOUT", 10*time.Second),
			Features: workflow.Features{
				Wallet:       utils.GetConfigBool("WALLET_ENABLED", true),
				Analytics:    utils.GetConfigBool("ANALYTICS_ENABLED", true),
				Gamification: utils.GetConfigBool("GAMIFICATION_ENABLED", true),
			},
		},
	)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	gameHandler := handlers.NewGameHandler(gameService, validator)
	walletHandler := handlers.NewWalletHandler(walletService, validator)
	workflowHandler := handlers.NewWorkflowHandler(workflowService, validator, serviceName())

	// routes
	routesConfig := routes.Config{
		App:              app,
		ReceiptHandler:   receiptHandler,
		AnalyticsHandler: analyticsHandler,
		GameHandler:      gameHandler,
		WalletHandler:    walletHandler,
		WorkflowHandler:  workflowHandler,
		Middleware:       middlewares,
		JWTService:       jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

func serviceName() string {
	if name := utils.GetConfig("APP_NAME"); name != "" {
		return name
	}
	return "stash-backend"
}
