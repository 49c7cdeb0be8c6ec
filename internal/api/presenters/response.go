package presenters

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ErrorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// SuccessResponse writes data as the response body. The message is only logged.
func SuccessResponse(c *fiber.Ctx, data any, status int, message string) error {
	zap.L().Debug(message,
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
	)
	if data == nil {
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
	return c.Status(status).JSON(data)
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	return ErrorResponseWithData(c, status, message, err, nil)
}

// ErrorResponseWithData adds machine-readable failure details under "data".
func ErrorResponseWithData(c *fiber.Ctx, status int, message string, err error, data any) error {
	body := ErrorBody{Detail: message, Data: data}
	if err != nil {
		body.Error = err.Error()
	}

	log := zap.L().With(
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err),
	)
	if status >= fiber.StatusInternalServerError {
		log.Error(message)
	} else {
		log.Info(message)
	}

	return c.Status(status).JSON(body)
}
