package handlers

import (
	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user approval and membership endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListPending lists registrations waiting for approval
// @Summary List pending users
// @Description Users waiting for application admin approval
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users/pending [get]
func (h *UserHandler) ListPending(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	params := pagination.GetParams(c)
	users, total, err := h.userService.ListPending(c.Context(), id, params)
	if err != nil {
		return response.FromError(c, err)
	}

	return paged(c, "Pending users retrieved successfully", toUserResponses(users), params, total)
}

// Approve approves a pending user
// @Summary Approve user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/users/{id}/approve [post]
func (h *UserHandler) Approve(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	user, err := h.userService.Approve(c.Context(), id, userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "User approved", fiber.Map{"user": user.ToResponse()})
}

// Reject rejects a pending user
// @Summary Reject user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.RejectUserInput false "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/users/{id}/reject [post]
func (h *UserHandler) Reject(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.RejectUserInput
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return response.FromError(c, err)
		}
	}

	user, err := h.userService.Reject(c.Context(), id, userID, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "User rejected", fiber.Map{"user": user.ToResponse()})
}

// ListOrganizations lists every organization
// @Summary List organizations
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/organizations [get]
func (h *UserHandler) ListOrganizations(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	params := pagination.GetParams(c)
	orgs, total, err := h.userService.ListOrganizations(c.Context(), id, params)
	if err != nil {
		return response.FromError(c, err)
	}

	return paged(c, "Organizations retrieved successfully", orgs, params, total)
}

// ListUsers lists members of the caller's organization
// @Summary List organization users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(FARM_ADMIN, FIELD_MANAGER)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		r := domain.Role(raw)
		if !r.Valid() {
			return response.BadRequest(c, "invalid role")
		}
		role = &r
	}

	params := pagination.GetParams(c)
	users, total, err := h.userService.ListUsers(c.Context(), id, role, params)
	if err != nil {
		return response.FromError(c, err)
	}

	return paged(c, "Users retrieved successfully", toUserResponses(users), params, total)
}

func toUserResponses(users []*models.User) []*models.UserResponse {
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out
}
