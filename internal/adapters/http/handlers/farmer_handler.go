package handlers

import (
	"strings"

	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FarmerHandler handles farmer registry endpoints
type FarmerHandler struct {
	farmerService *services.FarmerService
}

// NewFarmerHandler creates a new farmer handler
func NewFarmerHandler(farmerService *services.FarmerService) *FarmerHandler {
	return &FarmerHandler{farmerService: farmerService}
}

// Create registers a farmer
// @Summary Create farmer
// @Tags Farmers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateFarmerInput true "Farmer data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /farmers [post]
func (h *FarmerHandler) Create(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.CreateFarmerInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	farmer, err := h.farmerService.Create(c.Context(), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Farmer created successfully", farmer)
}

// List lists farmers of the caller's organization
// @Summary List farmers
// @Tags Farmers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, phone or village"
// @Param status query string false "Status filter" Enums(ACTIVE, INACTIVE)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /farmers [get]
func (h *FarmerHandler) List(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	filter := repositories.FarmerFilter{Search: strings.TrimSpace(c.Query("search"))}
	if raw := c.Query("status"); raw != "" {
		status := domain.FarmerStatus(strings.ToUpper(raw))
		filter.Status = &status
	}

	params := pagination.GetParams(c)
	farmers, total, err := h.farmerService.List(c.Context(), id, filter, params)
	if err != nil {
		return response.FromError(c, err)
	}

	return paged(c, "Farmers retrieved successfully", farmers, params, total)
}

// Get returns one farmer
// @Summary Get farmer
// @Tags Farmers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /farmers/{id} [get]
func (h *FarmerHandler) Get(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	farmer, err := h.farmerService.Get(c.Context(), id, farmerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Farmer retrieved successfully", farmer)
}

// Update changes farmer details
// @Summary Update farmer
// @Tags Farmers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Param body body services.UpdateFarmerInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /farmers/{id} [put]
func (h *FarmerHandler) Update(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.UpdateFarmerInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	farmer, err := h.farmerService.Update(c.Context(), id, farmerID, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Farmer updated successfully", farmer)
}

// Deactivate marks a farmer inactive
// @Summary Deactivate farmer
// @Tags Farmers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Farmer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /farmers/{id} [delete]
func (h *FarmerHandler) Deactivate(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	farmerID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	farmer, err := h.farmerService.Deactivate(c.Context(), id, farmerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Farmer deactivated", farmer)
}
