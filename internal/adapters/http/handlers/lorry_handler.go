package handlers

import (
	"context"
	"strings"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LorryHandler handles fleet and lorry lifecycle endpoints
type LorryHandler struct {
	lorryService     *services.LorryService
	lifecycleService *services.LifecycleService
}

// NewLorryHandler creates a new lorry handler
func NewLorryHandler(lorryService *services.LorryService, lifecycleService *services.LifecycleService) *LorryHandler {
	return &LorryHandler{
		lorryService:     lorryService,
		lifecycleService: lifecycleService,
	}
}

// Create registers a lorry
// @Summary Create lorry
// @Tags Lorries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateLorryInput true "Lorry data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /lorries [post]
func (h *LorryHandler) Create(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.CreateLorryInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	lorry, err := h.lorryService.Create(c.Context(), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Lorry created successfully", lorry)
}

// List lists lorries of the caller's organization
// @Summary List lorries
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(AVAILABLE, ASSIGNED, LOADING, SUBMITTED, SENT_TO_DEALER, MAINTENANCE)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /lorries [get]
func (h *LorryHandler) List(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var status *domain.LorryStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.LorryStatus(strings.ToUpper(raw))
		status = &s
	}

	params := pagination.GetParams(c)
	lorries, total, err := h.lorryService.List(c.Context(), id, status, params)
	if err != nil {
		return response.FromError(c, err)
	}

	return paged(c, "Lorries retrieved successfully", lorries, params, total)
}

// Get returns one lorry
// @Summary Get lorry
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /lorries/{id} [get]
func (h *LorryHandler) Get(c *fiber.Ctx) error {
	return h.act(c, "Lorry retrieved successfully", h.lorryService.Get)
}

// Update changes plate, driver or capacity
// @Summary Update lorry
// @Tags Lorries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Param body body services.UpdateLorryInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id} [put]
func (h *LorryHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateLorryInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Lorry updated successfully", func(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
		return h.lorryService.Update(ctx, caller, id, &req)
	})
}

// Assign assigns a field manager
// @Summary Assign lorry
// @Tags Lorries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Param body body services.AssignLorryInput true "Field manager"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/assign [post]
func (h *LorryHandler) Assign(c *fiber.Ctx) error {
	var req services.AssignLorryInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	return h.act(c, "Lorry assigned", func(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
		return h.lorryService.Assign(ctx, caller, id, &req)
	})
}

// Unassign releases the field manager
// @Summary Unassign lorry
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/unassign [post]
func (h *LorryHandler) Unassign(c *fiber.Ctx) error {
	return h.act(c, "Lorry unassigned", h.lorryService.Unassign)
}

// Maintenance takes the lorry out of service
// @Summary Send lorry to maintenance
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/maintenance [post]
func (h *LorryHandler) Maintenance(c *fiber.Ctx) error {
	return h.act(c, "Lorry in maintenance", h.lorryService.Maintenance)
}

// Restore returns the lorry to service
// @Summary Restore lorry
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/restore [post]
func (h *LorryHandler) Restore(c *fiber.Ctx) error {
	return h.act(c, "Lorry available", h.lorryService.Restore)
}

// Submit completes open deliveries and submits the lorry
// @Summary Submit lorry
// @Description Assigned field manager only
// @Tags Lorries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/submit [post]
func (h *LorryHandler) Submit(c *fiber.Ctx) error {
	return h.act(c, "Lorry submitted", h.lifecycleService.SubmitLorry)
}

// SendToDealer closes the lorry run
// @Summary Send lorry to dealer
// @Tags Lorries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Param body body services.SendToDealerInput false "Dealer"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /lorries/{id}/send-to-dealer [post]
func (h *LorryHandler) SendToDealer(c *fiber.Ctx) error {
	var req services.SendToDealerInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return response.FromError(c, err)
		}
	}
	return h.act(c, "Lorry sent to dealer", func(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error) {
		return h.lifecycleService.MarkSentToDealer(ctx, caller, id, &req)
	})
}

// act runs a single-lorry operation addressed by :id
func (h *LorryHandler) act(c *fiber.Ctx, message string, fn func(ctx context.Context, caller domain.Identity, id uint) (*models.Lorry, error)) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	lorryID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	lorry, err := fn(c.Context(), id, lorryID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, message, lorry)
}
