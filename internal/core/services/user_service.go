package services

import (
	"context"
	"log"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/password"
	"corntrack/internal/pkg/validator"
)

// User service errors
var (
	ErrUserNotPending   = domain.NewError(domain.KindInvalidState, "user is not waiting for approval")
	ErrOldPasswordWrong = domain.NewError(domain.KindValidation, "old password is incorrect")
)

// UserService handles approval and organization membership
type UserService struct {
	store    *repositories.Store
	notifier *NotificationService
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(store *repositories.Store, notifier *NotificationService) *UserService {
	if notifier == nil {
		notifier = NewNotificationService(nil)
	}
	return &UserService{store: store, notifier: notifier, now: time.Now}
}

// RejectUserInput carries an optional rejection reason
type RejectUserInput struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ListPending lists users waiting for approval
func (s *UserService) ListPending(ctx context.Context, caller domain.Identity, params *pagination.Params) ([]*models.User, int64, error) {
	if err := caller.Can(domain.ActionUserApprove, 0); err != nil {
		return nil, 0, err
	}
	status := domain.UserStatusPending
	return s.store.Users.List(ctx, repositories.UserFilter{Status: &status}, params.Offset, params.Limit)
}

// ListUsers lists members of the caller's organization; application admins
// see every user
func (s *UserService) ListUsers(ctx context.Context, caller domain.Identity, role *domain.Role, params *pagination.Params) ([]*models.User, int64, error) {
	if err := caller.Can(domain.ActionUserList, 0); err != nil {
		return nil, 0, err
	}

	filter := repositories.UserFilter{Role: role}
	if caller.Role != domain.RoleApplicationAdmin {
		orgID := caller.OrganizationID
		filter.OrganizationID = &orgID
	}
	return s.store.Users.List(ctx, filter, params.Offset, params.Limit)
}

// ListOrganizations lists every organization
func (s *UserService) ListOrganizations(ctx context.Context, caller domain.Identity, params *pagination.Params) ([]*models.Organization, int64, error) {
	if err := caller.Can(domain.ActionOrganizationList, 0); err != nil {
		return nil, 0, err
	}
	return s.store.Organizations.List(ctx, params.Offset, params.Limit)
}

// Approve lets a PENDING user log in
func (s *UserService) Approve(ctx context.Context, caller domain.Identity, userID uint) (*models.User, error) {
	user, err := s.decide(ctx, caller, userID, func(u *models.User) {
		now := s.now()
		u.Status = domain.UserStatusApproved
		u.ApprovedBy = &caller.UserID
		u.ApprovedAt = &now
		u.RejectionReason = ""
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User approved: %s", user.Email)
	s.notifier.NotifyUserApproved(ctx, user)
	return user, nil
}

// Reject refuses a PENDING user
func (s *UserService) Reject(ctx context.Context, caller domain.Identity, userID uint, input *RejectUserInput) (*models.User, error) {
	if input == nil {
		input = &RejectUserInput{}
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	user, err := s.decide(ctx, caller, userID, func(u *models.User) {
		u.Status = domain.UserStatusRejected
		u.RejectionReason = reason
	})
	if err != nil {
		return nil, err
	}

	log.Printf("❌ User rejected: %s", user.Email)
	s.notifier.NotifyUserRejected(ctx, user, reason)
	return user, nil
}

// ChangePassword changes the caller's password and ends their other sessions
func (s *UserService) ChangePassword(ctx context.Context, caller domain.Identity, input *ChangePasswordInput) error {
	if err := validator.Struct(input); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		user, err := tx.Users.GetByID(ctx, caller.UserID)
		if err != nil {
			return lookupErr(err, ErrUserNotFound)
		}
		if !password.Verify(input.OldPassword, user.Password) {
			return ErrOldPasswordWrong
		}

		hashedPassword, err := password.Hash(input.NewPassword)
		if err != nil {
			return err
		}
		user.Password = hashedPassword
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}
		return tx.RefreshTokens.RevokeAllByUserID(ctx, user.ID)
	})
}

func (s *UserService) decide(ctx context.Context, caller domain.Identity, userID uint, apply func(u *models.User)) (*models.User, error) {
	if err := caller.Can(domain.ActionUserApprove, 0); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		u, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return lookupErr(err, ErrUserNotFound)
		}
		if u.Status != domain.UserStatusPending {
			return ErrUserNotPending
		}

		apply(u)
		if err := tx.Users.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
