package handlers

import (
	"errors"
	"fmt"
	"strings"

	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/receipt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		UploadImage(c *fiber.Ctx) error
		ProcessReceipt(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

func (h *receiptHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, domain.ErrFileRequired)
	}

	req := domain.UploadImageRequest{
		UserID: c.FormValue("userId"),
		Image:  file,
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, err)
	}

	resp, err := h.receiptService.UploadImage(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileType):
			message := fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(domain.AllowedImageTypes, ", "))
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, message, err)
		case errors.Is(err, domain.ErrStorageUnavailable):
			return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageStorageUnavailable, err)
		default:
			return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUploadImage, err)
		}
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessUploadImage)
}

func (h *receiptHandler) ProcessReceipt(c *fiber.Ctx) error {
	req := new(domain.ProcessReceiptRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessReceipt, err)
	}

	resp, err := h.receiptService.ProcessReceipt(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedProcessReceipt, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessProcessReceipt)
}
