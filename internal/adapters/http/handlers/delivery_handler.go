package handlers

import (
	"context"
	"strings"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DeliveryHandler handles delivery recording and admin overrides
type DeliveryHandler struct {
	deliveryService  *services.DeliveryService
	lifecycleService *services.LifecycleService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(deliveryService *services.DeliveryService, lifecycleService *services.LifecycleService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService:  deliveryService,
		lifecycleService: lifecycleService,
	}
}

// Create records a delivery on a loadable lorry
// @Summary Create delivery
// @Tags Deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateDeliveryInput true "Delivery data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries [post]
func (h *DeliveryHandler) Create(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.CreateDeliveryInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	delivery, err := h.deliveryService.Create(c.Context(), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Delivery recorded", delivery.ToResponse())
}

// List lists deliveries with optional filters
// @Summary List deliveries
// @Tags Deliveries
// @Produce json
// @Security BearerAuth
// @Param lorry_id query int false "Lorry"
// @Param farmer_id query int false "Farmer"
// @Param field_manager_id query int false "Field manager"
// @Param status query string false "Status filter" Enums(PENDING, IN_PROGRESS, COMPLETED, CANCELLED)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /deliveries [get]
func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var filter repositories.DeliveryFilter
	if filter.LorryID, err = queryID(c, "lorry_id"); err != nil {
		return response.FromError(c, err)
	}
	if filter.FarmerID, err = queryID(c, "farmer_id"); err != nil {
		return response.FromError(c, err)
	}
	if filter.FieldManagerID, err = queryID(c, "field_manager_id"); err != nil {
		return response.FromError(c, err)
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.DeliveryStatus(strings.ToUpper(raw))
		filter.Status = &status
	}

	params := pagination.GetParams(c)
	deliveries, total, err := h.deliveryService.List(c.Context(), id, filter, params)
	if err != nil {
		return response.FromError(c, err)
	}

	items := make([]*models.DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, d.ToResponse())
	}
	return paged(c, "Deliveries retrieved successfully", items, params, total)
}

// Get returns one delivery
// @Summary Get delivery
// @Tags Deliveries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /deliveries/{id} [get]
func (h *DeliveryHandler) Get(c *fiber.Ctx) error {
	return h.act(c, "Delivery retrieved successfully", h.deliveryService.Get)
}

// Update edits an open delivery; all-or-nothing
// @Summary Update delivery
// @Tags Deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Param body body services.UpdateDeliveryInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries/{id} [put]
func (h *DeliveryHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateDeliveryInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Delivery updated successfully", func(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error) {
		return h.deliveryService.Update(ctx, caller, id, &req)
	})
}

// AddBag appends one weighed bag
// @Summary Add bag
// @Tags Deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Param body body services.AddBagInput true "Bag"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries/{id}/bags [post]
func (h *DeliveryHandler) AddBag(c *fiber.Ctx) error {
	var req services.AddBagInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Bag added", func(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error) {
		return h.deliveryService.AddBag(ctx, caller, id, &req)
	})
}

// Delete removes an open delivery
// @Summary Delete delivery
// @Tags Deliveries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries/{id} [delete]
func (h *DeliveryHandler) Delete(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	deliveryID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if err := h.deliveryService.Delete(c.Context(), id, deliveryID); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Delivery deleted", nil)
}

// SetQualityDeduction applies the admin quality deduction
// @Summary Set quality deduction
// @Tags Deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Param body body services.QualityDeductionInput true "Deduction in kg"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries/{id}/quality-deduction [put]
func (h *DeliveryHandler) SetQualityDeduction(c *fiber.Ctx) error {
	var req services.QualityDeductionInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Quality deduction applied", func(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error) {
		return h.lifecycleService.SetQualityDeduction(ctx, caller, id, &req)
	})
}

// SetPricing prices a delivery and nets off advances
// @Summary Set pricing
// @Tags Deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Param body body services.PricingInput true "Price per kg"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /deliveries/{id}/pricing [put]
func (h *DeliveryHandler) SetPricing(c *fiber.Ctx) error {
	var req services.PricingInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Pricing applied", func(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error) {
		return h.lifecycleService.SetPricing(ctx, caller, id, &req)
	})
}

// act runs a single-delivery operation addressed by :id
func (h *DeliveryHandler) act(c *fiber.Ctx, message string, fn func(ctx context.Context, caller domain.Identity, id uint) (*models.Delivery, error)) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	deliveryID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	delivery, err := fn(c.Context(), id, deliveryID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, message, delivery.ToResponse())
}
