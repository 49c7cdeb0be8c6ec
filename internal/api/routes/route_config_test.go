package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"stash-backend/domain"
	"stash-backend/entities"
	"stash-backend/internal/api/handlers"
	"stash-backend/internal/middleware"
	"stash-backend/internal/testutil"
	"stash-backend/internal/utils"
	"stash-backend/internal/utils/genai"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	utils.InitValidator()
}

const (
	ocrText    = "CITY GROCERY\nMilk 3.50\nBread 2.25\nTOTAL $120.00"
	parsedJSON = `{"merchant": "City Grocery", "items": [{"name": "Milk", "price": "3.50"}, {"name": "Bread", "price": "2.25"}], "total": "$120.00"}`
	jwtSecret  = "test-secret"
)

type memoryS3 struct {
	objects map[string][]byte
}

func (m *memoryS3) UploadFile(ctx context.Context, objectKey string, file *multipart.FileHeader, allowedTypes ...string) (string, error) {
	m.objects[objectKey] = []byte(file.Filename)
	return objectKey, nil
}

func (m *memoryS3) DownloadFile(ctx context.Context, objectKey string) ([]byte, string, error) {
	return m.objects[objectKey], "image/png", nil
}

func (m *memoryS3) DeleteFile(ctx context.Context, objectKey string) error {
	delete(m.objects, objectKey)
	return nil
}

func (m *memoryS3) GetPublicLinkKey(objectKey string) string {
	return "https://receipts.test/" + objectKey
}

func (m *memoryS3) GetObjectKeyFromLink(link string) (string, bool) {
	return strings.CutPrefix(link, "https://receipts.test/")
}

type testOptions struct {
	authRequired bool
	s3           storage.AwsS3
	maxDaily     int
	features     workflow.Features
}

func newTestApp(t *testing.T, opts testOptions) *fiber.App {
	t.Helper()
	db := testutil.NewTestDB(t, &entities.User{}, &entities.Receipt{}, &entities.PointTransaction{}, &entities.Redemption{})

	if opts.features == (workflow.Features{}) {
		opts.features = workflow.AllFeatures()
	}

	receiptRepository := receipt.NewReceiptRepository(db)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		opts.s3,
		vision.NewStaticExtractor(ocrText),
		receipt.NewLLMReceiptParser(genai.NewStaticGenerator(parsedJSON)),
		nil,
		receipt.ServiceConfig{MaxDailyReceipts: opts.maxDaily, CallTimeout: time.Second},
	)
	walletService := wallet.NewWalletService(wallet.NewWalletRepository(db), nil)
	engine := points.NewPointsEngine(domain.DefaultPointsRules(), points.NewRandomSource(42))
	gameService := game.NewGameService(engine, walletService, receiptService)
	analyticsService := analytics.NewAnalyticsService(receiptRepository, genai.NewStaticGenerator("Buy less."))
	workflowService := workflow.NewWorkflowService(receiptService, gameService, walletService, analyticsService, workflow.Config{
		BranchTimeout: 5 * time.Second,
		Features:      opts.features,
	})

	app := fiber.New()
	config := Config{
		App:              app,
		ReceiptHandler:   handlers.NewReceiptHandler(receiptService, utils.Validate),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsService),
		GameHandler:      handlers.NewGameHandler(gameService, utils.Validate),
		WalletHandler:    handlers.NewWalletHandler(walletService, utils.Validate),
		WorkflowHandler:  handlers.NewWorkflowHandler(workflowService, utils.Validate, "stash-test"),
		Middleware:       middleware.NewMiddleware(opts.authRequired),
		JWTService:       jwt.NewJWTService(jwtSecret),
	}
	config.Setup()
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return doRequest(t, app, req)
}

func uploadRequest(t *testing.T, userID, filename, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("userId", userID))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodGet, "/health", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stash-test", body["service"])
}

func TestReceiptWorkflowEndToEnd(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodPost, "/adk/receipt/process", fiber.Map{
		"imageUrl": "https://cdn.example.com/r1.png",
		"userId":   "user-1",
	}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, domain.WorkflowStatusProcessed, body["status"])
	assert.Equal(t, true, body["workflow_complete"])
	awarded := int(body["points_awarded"].(float64))
	assert.Positive(t, awarded)
	assert.Equal(t, float64(awarded), body["new_balance"])
	assert.Contains(t, body["summary"], "Merchant: City Grocery")

	status, body = doJSON(t, app, http.MethodGet, "/wallet/balance/user-1", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(awarded), body["balance"])
	assert.Equal(t, domain.PointsCurrency, body["currency"])

	status, body = doJSON(t, app, http.MethodGet, "/wallet/transactions/user-1?limit=5", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	transactions := body["transactions"].([]any)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Receipt upload from City Grocery", transactions[0].(map[string]any)["reason"])

	status, body = doJSON(t, app, http.MethodGet, "/game/achievements/user-1", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	achievements := body["achievements"].([]any)
	require.NotEmpty(t, achievements)
	assert.Equal(t, domain.AchievementFirstReceipt, achievements[0].(map[string]any)["name"])

	status, body = doJSON(t, app, http.MethodGet, "/analytics/spending-report/user-1", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["total_receipts"])
	assert.Equal(t, 120.0, summary["total_spending"])
	assert.Equal(t, "Buy less.", body["insights"])

	status, body = doJSON(t, app, http.MethodGet, "/adk/dashboard/user-1", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.StatusSuccess, body["wallet"].(map[string]any)["status"])
	assert.Equal(t, float64(awarded), body["wallet"].(map[string]any)["balance"])
	assert.Equal(t, domain.StatusSuccess, body["analytics"].(map[string]any)["status"])
	assert.Equal(t, domain.StatusSuccess, body["gamification"].(map[string]any)["status"])
}

func TestAwardPoints(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodPost, "/game/award-points", fiber.Map{
		"userId":      "user-1",
		"receiptData": fiber.Map{"merchant": "City Grocery", "total": 120.0},
	}, "")
	require.Equal(t, fiber.StatusOK, status, body)

	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, body["points"], breakdown["total_points"])
	assert.Equal(t, breakdown["base_points"].(float64)+breakdown["bonus_points"].(float64), breakdown["total_points"])
	assert.Contains(t, breakdown["bonus_reasons"], "Large purchase bonus (+10)")
	assert.Contains(t, breakdown["bonus_reasons"], "Grocery shopping bonus (+3)")

	status, _ = doJSON(t, app, http.MethodPost, "/game/award-points", fiber.Map{"receiptData": fiber.Map{}}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRedeem(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodPost, "/wallet/redeem", fiber.Map{"userId": "user-1", "rewardId": "premium_insights"}, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Insufficient balance. Current: 0, Required: 300", body["detail"])
	assert.Equal(t, float64(300), body["data"].(map[string]any)["shortfall"])

	status, body = doJSON(t, app, http.MethodPost, "/wallet/redeem", fiber.Map{"userId": "user-1", "rewardId": "yacht"}, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, domain.MessageRewardNotFound, body["detail"])

	status, _ = doJSON(t, app, http.MethodPost, "/wallet/redeem", fiber.Map{"userId": "user-1"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRewards(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodGet, "/wallet/rewards", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["catalog"], len(domain.RewardCatalog))
	assert.NotEmpty(t, body["categories"])
}

func TestSpendingReport_NoReceipts(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, body := doJSON(t, app, http.MethodGet, "/analytics/spending-report/user-9", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.MessageNoReceipts, body["message"])
}

func TestBudgetForecast_InvalidPeriod(t *testing.T) {
	app := newTestApp(t, testOptions{})

	status, _ := doJSON(t, app, http.MethodPost, "/receipt/process-receipt", fiber.Map{"imageUrl": "https://cdn/x.png", "userId": "user-1"}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/analytics/budget-forecast/user-1?period=hourly", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.MessageFailedBudgetForecast, body["detail"])

	status, body = doJSON(t, app, http.MethodGet, "/analytics/budget-forecast/user-1?period=weekly", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 840.0, body["projected_spending"])
}

func TestProcessReceipt_DailyLimit(t *testing.T) {
	app := newTestApp(t, testOptions{maxDaily: 1})
	payload := fiber.Map{"imageUrl": "https://cdn/x.png", "userId": "user-1"}

	status, body := doJSON(t, app, http.MethodPost, "/receipt/process-receipt", payload, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.NotEmpty(t, body["receiptId"])
	assert.Equal(t, true, body["processing_summary"].(map[string]any)["stored_successfully"])

	status, _ = doJSON(t, app, http.MethodPost, "/receipt/process-receipt", payload, "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	status, body = doJSON(t, app, http.MethodPost, "/adk/receipt/process", payload, "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, domain.StepReceiptProcessing, body["failed_step"])
}

func TestUpload(t *testing.T) {
	t.Run("storage unavailable", func(t *testing.T) {
		app := newTestApp(t, testOptions{})
		status, body := doRequest(t, app, uploadRequest(t, "user-1", "r.png", "image/png"))
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, domain.MessageStorageUnavailable, body["detail"])
	})

	t.Run("invalid type", func(t *testing.T) {
		app := newTestApp(t, testOptions{s3: &memoryS3{objects: map[string][]byte{}}})
		status, body := doRequest(t, app, uploadRequest(t, "user-1", "r.pdf", "application/pdf"))
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.True(t, strings.HasPrefix(body["detail"].(string), "Invalid file type. Allowed types: image/jpeg"))
	})

	t.Run("stored", func(t *testing.T) {
		s3 := &memoryS3{objects: map[string][]byte{}}
		app := newTestApp(t, testOptions{s3: s3})
		status, body := doRequest(t, app, uploadRequest(t, "user-1", "r.png", "image/png"))
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, "user-1", body["userId"])
		assert.True(t, strings.HasPrefix(body["imageUrl"].(string), "https://receipts.test/receipts/user-1/"))
		assert.Len(t, s3.objects, 1)
	})
}

func TestDashboard_DisabledBranches(t *testing.T) {
	app := newTestApp(t, testOptions{features: workflow.Features{Wallet: true}})

	status, body := doJSON(t, app, http.MethodGet, "/adk/dashboard/user-1", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, domain.StatusSuccess, body["wallet"].(map[string]any)["status"])
	assert.Equal(t, domain.StatusDisabled, body["analytics"].(map[string]any)["status"])
	assert.Equal(t, domain.StatusDisabled, body["gamification"].(map[string]any)["status"])
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t, testOptions{authRequired: true})
	token, err := jwt.NewJWTService(jwtSecret).GenerateTokenUser("user-1", time.Hour)
	require.NoError(t, err)

	status, _ := doJSON(t, app, http.MethodGet, "/wallet/balance/user-1", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/wallet/balance/user-1", nil, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := doJSON(t, app, http.MethodGet, "/wallet/balance/user-2", nil, token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, domain.MessageUserNotAllowed, body["detail"])

	status, _ = doJSON(t, app, http.MethodPost, "/wallet/redeem", fiber.Map{"userId": "user-2", "rewardId": "premium_insights"}, token)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodGet, "/wallet/balance/user-1", nil, token)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/wallet/rewards", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
}
