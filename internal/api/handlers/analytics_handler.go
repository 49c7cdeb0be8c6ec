package handlers

import (
	"errors"

	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/analytics"

	"github.com/gofiber/fiber/v2"
)

type (
	AnalyticsHandler interface {
		GetSpendingReport(c *fiber.Ctx) error
		GetBudgetForecast(c *fiber.Ctx) error
	}

	analyticsHandler struct {
		analyticsService analytics.AnalyticsService
	}
)

func NewAnalyticsHandler(analyticsService analytics.AnalyticsService) AnalyticsHandler {
	return &analyticsHandler{
		analyticsService: analyticsService,
	}
}

var noReceipts = domain.NoReceiptsResponse{Status: domain.StatusSuccess, Message: domain.MessageNoReceipts}

func (h *analyticsHandler) GetSpendingReport(c *fiber.Ctx) error {
	userID := c.Params("userId")

	report, err := h.analyticsService.GetSpendingReport(c.Context(), userID)
	if errors.Is(err, domain.ErrNoReceipts) {
		return presenters.SuccessResponse(c, noReceipts, fiber.StatusOK, domain.MessageNoReceipts)
	}
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedSpendingReport, err)
	}

	return presenters.SuccessResponse(c, report, fiber.StatusOK, domain.MessageSuccessSpendingReport)
}

func (h *analyticsHandler) GetBudgetForecast(c *fiber.Ctx) error {
	userID := c.Params("userId")
	period := c.Query("period", domain.PeriodMonthly)

	forecast, err := h.analyticsService.GetBudgetForecast(c.Context(), userID, period)
	if errors.Is(err, domain.ErrNoReceipts) {
		return presenters.SuccessResponse(c, noReceipts, fiber.StatusOK, domain.MessageNoReceipts)
	}
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedBudgetForecast, err)
	}

	return presenters.SuccessResponse(c, forecast, fiber.StatusOK, domain.MessageSuccessBudgetForecast)
}
