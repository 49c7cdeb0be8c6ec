package handlers

import (
	"errors"
	"time"

	"stash-backend/domain"
	"stash-backend/internal/api/presenters"
	"stash-backend/pkg/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	WorkflowHandler interface {
		ProcessReceipt(c *fiber.Ctx) error
		GetDashboard(c *fiber.Ctx) error
		Health(c *fiber.Ctx) error
	}

	workflowHandler struct {
		workflowService workflow.WorkflowService
		validator       *validator.Validate
		serviceName     string
	}
)

func NewWorkflowHandler(workflowService workflow.WorkflowService, validator *validator.Validate, serviceName string) WorkflowHandler {
	return &workflowHandler{
		workflowService: workflowService,
		validator:       validator,
		serviceName:     serviceName,
	}
}

func (h *workflowHandler) ProcessReceipt(c *fiber.Ctx) error {
	req := new(domain.ProcessReceiptRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedWorkflow, err)
	}

	result, err := h.workflowService.RunReceiptWorkflow(c.Context(), *req)
	if err != nil {
		var stepErr *domain.StepError
		if errors.As(err, &stepErr) {
			return presenters.SuccessResponse(c, result, statusFor(stepErr.Err), domain.MessageFailedWorkflow)
		}
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedWorkflow, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessProcessReceipt)
}

func (h *workflowHandler) GetDashboard(c *fiber.Ctx) error {
	userID := c.Params("userId")

	resp, err := h.workflowService.GetDashboard(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDashboard, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, "dashboard built")
}

func (h *workflowHandler) Health(c *fiber.Ctx) error {
	return c.JSON(domain.HealthResponse{
		Status:    "healthy",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC(),
	})
}
