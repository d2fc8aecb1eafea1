package handlers

import (
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InvitationHandler handles organization invitations
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// Invite invites a user into the caller's organization
// @Summary Invite user
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.InviteInput true "Email and role"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /invitations [post]
func (h *InvitationHandler) Invite(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var req services.InviteInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.invitationService.Invite(c.Context(), id, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Invitation sent", result)
}

// List lists the organization's invitations
// @Summary List invitations
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(PENDING, ACCEPTED, EXPIRED, REVOKED)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /invitations [get]
func (h *InvitationHandler) List(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}

	var status *domain.InvitationStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.InvitationStatus(raw)
		status = &s
	}

	invitations, err := h.invitationService.List(c.Context(), id, status)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Invitations retrieved successfully", invitations)
}

// Revoke revokes a pending invitation
// @Summary Revoke invitation
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invitation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /invitations/{id} [delete]
func (h *InvitationHandler) Revoke(c *fiber.Ctx) error {
	id, err := caller(c)
	if err != nil {
		return response.FromError(c, err)
	}
	invitationID, err := paramID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	invitation, err := h.invitationService.Revoke(c.Context(), id, invitationID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Invitation revoked", invitation)
}

// Accept accepts an invitation and creates the account
// @Summary Accept invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Param body body services.AcceptInvitationInput true "Token and account details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /invitations/accept [post]
func (h *InvitationHandler) Accept(c *fiber.Ctx) error {
	var req services.AcceptInvitationInput
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	user, err := h.invitationService.Accept(c.Context(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Account created, you can now login", fiber.Map{"user": user})
}
