package handlers

import (
	"errors"

	"stash-backend/domain"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors onto HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrImageURLRequired),
		errors.Is(err, domain.ErrFileRequired),
		errors.Is(err, domain.ErrInvalidFileType),
		errors.Is(err, domain.ErrInvalidPoints),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrRewardUnavailable):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrRewardNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrDailyReceiptLimit):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
