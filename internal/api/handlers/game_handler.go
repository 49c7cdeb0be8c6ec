package handlers

import (
	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/game"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	GameHandler interface {
		AwardPoints(c *fiber.Ctx) error
		GetAchievements(c *fiber.Ctx) error
	}

	gameHandler struct {
		gameService game.GameService
		validator   *validator.Validate
	}
)

func NewGameHandler(gameService game.GameService, validator *validator.Validate) GameHandler {
	return &gameHandler{
		gameService: gameService,
		validator:   validator,
	}
}

func (h *gameHandler) AwardPoints(c *fiber.Ctx) error {
	req := new(domain.AwardPointsRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAwardPoints, err)
	}

	var receipt domain.ReceiptData
	if req.ReceiptData != nil {
		receipt = *req.ReceiptData
	}

	resp, err := h.gameService.AwardReceiptPoints(c.Context(), req.UserID, receipt)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedAwardPoints, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessAwardPoints)
}

func (h *gameHandler) GetAchievements(c *fiber.Ctx) error {
	userID := c.Params("userId")

	resp, err := h.gameService.GetAchievements(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetAchievements, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessGetAchievements)
}
