package handlers

import (
	"errors"
	"strconv"

	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/wallet"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	WalletHandler interface {
		GetBalance(c *fiber.Ctx) error
		GetTransactions(c *fiber.Ctx) error
		GetRewards(c *fiber.Ctx) error
		Redeem(c *fiber.Ctx) error
		GetRedemptions(c *fiber.Ctx) error
		Reconcile(c *fiber.Ctx) error
	}

	walletHandler struct {
		walletService wallet.WalletService
		validator     *validator.Validate
	}
)

func NewWalletHandler(walletService wallet.WalletService, validator *validator.Validate) WalletHandler {
	return &walletHandler{
		walletService: walletService,
		validator:     validator,
	}
}

func (h *walletHandler) GetBalance(c *fiber.Ctx) error {
	userID := c.Params("userId")

	resp, err := h.walletService.GetBalanceSummary(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetBalance, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessGetBalance)
}

func (h *walletHandler) GetTransactions(c *fiber.Ctx) error {
	userID := c.Params("userId")

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(domain.DefaultHistoryLen)))
	if err != nil || limit < 1 {
		limit = domain.DefaultHistoryLen
	}

	resp, err := h.walletService.GetHistory(c.Context(), userID, limit)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetTransactions, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessGetTransactions)
}

func (h *walletHandler) GetRewards(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, h.walletService.GetRewards(c.Context()), fiber.StatusOK, domain.MessageSuccessGetRewards)
}

func (h *walletHandler) Redeem(c *fiber.Ctx) error {
	req := new(domain.RedeemRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRedeemReward, err)
	}

	resp, err := h.walletService.Redeem(c.Context(), *req)
	if err != nil {
		var insufficient *domain.InsufficientBalanceError
		switch {
		case errors.As(err, &insufficient):
			return presenters.ErrorResponseWithData(c, fiber.StatusBadRequest, insufficient.Error(), err, fiber.Map{
				"current_balance": insufficient.Current,
				"required":        insufficient.Required,
				"shortfall":       insufficient.Shortfall(),
			})
		case errors.Is(err, domain.ErrRewardNotFound):
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageRewardNotFound, err)
		case errors.Is(err, domain.ErrRewardUnavailable):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageRewardUnavailable, err)
		default:
			return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedRedeemReward, err)
		}
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessRedeemReward)
}

func (h *walletHandler) GetRedemptions(c *fiber.Ctx) error {
	userID := c.Params("userId")

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(domain.DefaultHistoryLen)))
	if err != nil || limit < 1 {
		limit = domain.DefaultHistoryLen
	}

	resp, err := h.walletService.GetRedemptions(c.Context(), userID, limit)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetRedemptions, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessGetRedemptions)
}

func (h *walletHandler) Reconcile(c *fiber.Ctx) error {
	userID := c.Params("userId")

	resp, err := h.walletService.Reconcile(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedReconcile, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessReconcile)
}
