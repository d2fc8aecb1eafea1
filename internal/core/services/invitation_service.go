package services

import (
	"context"
	"log"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/password"
	"corntrack/internal/pkg/validator"
)

// Invitation errors
var (
	ErrInvitationNotFound = domain.NewError(domain.KindNotFound, "invitation not found")
	ErrInvitationPending  = domain.NewError(domain.KindConflict, "a pending invitation already exists for this email")
	ErrInvitationClosed   = domain.NewError(domain.KindInvalidState, "invitation is no longer pending")
	ErrInvitationExpired  = domain.NewError(domain.KindInvalidState, "invitation has expired")
)

// InvitationService invites users into an organization
type InvitationService struct {
	store    *repositories.Store
	notifier *NotificationService
	ttl      time.Duration
	now      func() time.Time
}

// NewInvitationService creates a new invitation service
func NewInvitationService(store *repositories.Store, notifier *NotificationService, ttl time.Duration) *InvitationService {
	if notifier == nil {
		notifier = NewNotificationService(nil)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &InvitationService{store: store, notifier: notifier, ttl: ttl, now: time.Now}
}

// InviteInput names the invitee and the role they will get
type InviteInput struct {
	Email string      `json:"email" validate:"required,email,max=100"`
	Role  domain.Role `json:"role" validate:"required,oneof=FARM_ADMIN FIELD_MANAGER"`
}

// AcceptInvitationInput creates the invited account
type AcceptInvitationInput struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// InvitationResult is a created invitation with its one-time token
type InvitationResult struct {
	Invitation *models.Invitation `json:"invitation"`
	Token      string             `json:"token"`
}

// Invite creates a PENDING invitation and sends its token. Only the token
// hash is stored.
func (s *InvitationService) Invite(ctx context.Context, caller domain.Identity, input *InviteInput) (*InvitationResult, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	if err := caller.Can(domain.ActionInvitationSend, 0); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	token := password.NewToken()

	var (
		inv     *models.Invitation
		orgName string
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		org, err := tx.Organizations.GetByID(ctx, caller.OrganizationID)
		if err != nil {
			return lookupErr(err, domain.NotFoundf("organization not found"))
		}
		orgName = org.Name

		exists, err := tx.Users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}
		pending, err := tx.Invitations.ExistsPending(ctx, caller.OrganizationID, email)
		if err != nil {
			return err
		}
		if pending {
			return ErrInvitationPending
		}

		inv = &models.Invitation{
			OrganizationID: caller.OrganizationID,
			Email:          email,
			Role:           input.Role,
			Token:          password.HashToken(token),
			Status:         domain.InvitationStatusPending,
			ExpiresAt:      s.now().Add(s.ttl),
			InvitedByID:    caller.UserID,
		}
		return tx.Invitations.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✉️ Invitation #%d sent to %s (%s)", inv.ID, inv.Email, inv.Role)
	s.notifier.NotifyInvitation(ctx, inv, orgName, token)
	return &InvitationResult{Invitation: inv, Token: token}, nil
}

// List lists invitations of the caller's organization
func (s *InvitationService) List(ctx context.Context, caller domain.Identity, status *domain.InvitationStatus) ([]*models.Invitation, error) {
	if err := caller.Can(domain.ActionInvitationSend, 0); err != nil {
		return nil, err
	}
	return s.store.Invitations.ListByOrganization(ctx, caller.OrganizationID, status)
}

// Revoke cancels a PENDING invitation
func (s *InvitationService) Revoke(ctx context.Context, caller domain.Identity, id uint) (*models.Invitation, error) {
	if err := caller.Can(domain.ActionInvitationSend, 0); err != nil {
		return nil, err
	}

	var inv *models.Invitation
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		i, err := tx.Invitations.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, ErrInvitationNotFound)
		}
		if err := caller.Can(domain.ActionInvitationSend, i.OrganizationID); err != nil {
			return scopeErr(err, ErrInvitationNotFound)
		}
		if i.Status != domain.InvitationStatusPending {
			return ErrInvitationClosed
		}

		i.Status = domain.InvitationStatusRevoked
		if err := tx.Invitations.Update(ctx, i); err != nil {
			return err
		}
		inv = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Accept turns a valid invitation token into an APPROVED user of the
// inviting organization
func (s *InvitationService) Accept(ctx context.Context, input *AcceptInvitationInput) (*models.UserResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		inv, err := tx.Invitations.GetByToken(ctx, password.HashToken(strings.TrimSpace(input.Token)))
		if err != nil {
			return lookupErr(err, ErrInvitationNotFound)
		}
		if inv.Status != domain.InvitationStatusPending {
			return ErrInvitationClosed
		}
		now := s.now()
		if inv.IsExpired(now) {
			return ErrInvitationExpired
		}

		exists, err := tx.Users.ExistsByEmail(ctx, inv.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		orgID := inv.OrganizationID
		user = &models.User{
			OrganizationID: &orgID,
			Name:           strings.TrimSpace(input.Name),
			Email:          inv.Email,
			Phone:          strings.TrimSpace(input.Phone),
			Password:       hashedPassword,
			Role:           inv.Role,
			Status:         domain.UserStatusApproved,
			ApprovedBy:     &inv.InvitedByID,
			ApprovedAt:     &now,
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}

		inv.Status = domain.InvitationStatusAccepted
		inv.AcceptedAt = &now
		return tx.Invitations.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Invitation accepted: %s joined organization #%d as %s", user.Email, user.OrgID(), user.Role)
	return user.ToResponse(), nil
}

// ExpireStale marks PENDING invitations past their expiry as EXPIRED
func (s *InvitationService) ExpireStale(ctx context.Context) (int64, error) {
	return s.store.Invitations.ExpirePending(ctx, s.now())
}
