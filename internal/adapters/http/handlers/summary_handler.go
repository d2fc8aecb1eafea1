package handlers

import (
	"fmt"

	"corntrack/internal/core/services"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SummaryHandler handles dashboards and settlement export
type SummaryHandler struct {
	summaryService *services.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaryService *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// Organization returns the organization-wide summary
// @Summary Organization summary
// @Description Delivery totals plus lorry and farmer counts
// @Tags Summary
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /summary [get]
func (h *SummaryHandler) Organization(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	data, err := h.summaryService.OrganizationSummary(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Summary retrieved successfully", data)
}

// Lorry returns the summary of one lorry run
// @Summary Lorry summary
// @Tags Summary
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /lorries/{id}/summary [get]
func (h *SummaryHandler) Lorry(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	lorryID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	data, err := h.summaryService.LorrySummary(c.Context(), id, lorryID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Lorry summary retrieved successfully", data)
}

// Export downloads the lorry settlement workbook
// @Summary Export settlement
// @Tags Summary
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path int true "Lorry ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Response
// @Router /lorries/{id}/export [get]
func (h *SummaryHandler) Export(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	lorryID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	data, filename, err := h.summaryService.Export(c.Context(), id, lorryID)
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
