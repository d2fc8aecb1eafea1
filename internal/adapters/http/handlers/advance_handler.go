package handlers

import (
	"context"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdvanceHandler handles farmer advance payments
type AdvanceHandler struct {
	advanceService *services.AdvanceService
}

// NewAdvanceHandler creates a new advance handler
func NewAdvanceHandler(advanceService *services.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{advanceService: advanceService}
}

// Create records an advance for a farmer
// @Summary Create advance
// @Tags Advances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Param body body services.CreateAdvanceInput true "Advance"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /farmers/{id}/advances [post]
func (h *AdvanceHandler) Create(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.CreateAdvanceInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	advance, err := h.advanceService.Create(c.Context(), id, farmerID, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Advance recorded", advance.ToResponse())
}

// List lists a farmer's advances
// @Summary List advances
// @Tags Advances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /farmers/{id}/advances [get]
func (h *AdvanceHandler) List(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	params := pagination.GetParams(c)
	advances, total, err := h.advanceService.List(c.Context(), id, farmerID, params)
	if err != nil {
		return response.FromError(c, err)
	}

	items := make([]*models.AdvanceResponse, 0, len(advances))
	for _, a := range advances {
		items = append(items, a.ToResponse())
	}
	return paged(c, "Advances retrieved successfully", items, params, total)
}

// Balance returns the farmer's outstanding advance total
// @Summary Advance balance
// @Tags Advances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Success 200 {object} response.Response
// @Router /farmers/{id}/advances/balance [get]
func (h *AdvanceHandler) Balance(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	balance, err := h.advanceService.Balance(c.Context(), id, farmerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Advance balance retrieved successfully", balance)
}

// Complete marks a pending advance as paid
// @Summary Complete advance
// @Tags Advances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Advance ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /advances/{id}/complete [post]
func (h *AdvanceHandler) Complete(c *fiber.Ctx) error {
	return h.settle(c, "Advance completed", h.advanceService.Complete)
}

// Cancel voids a pending advance
// @Summary Cancel advance
// @Tags Advances
// @Produce json
// @Security BearerAuth
// @Param id path int true "Advance ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /advances/{id}/cancel [post]
func (h *AdvanceHandler) Cancel(c *fiber.Ctx) error {
	return h.settle(c, "Advance cancelled", h.advanceService.Cancel)
}

func (h *AdvanceHandler) settle(c *fiber.Ctx, message string, fn func(ctx context.Context, caller domain.Identity, id uint) (*models.AdvancePayment, error)) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	advanceID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	advance, err := fn(c.Context(), id, advanceID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, message, advance.ToResponse())
}
