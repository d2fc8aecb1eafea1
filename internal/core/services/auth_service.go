package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/jwt"
	"corntrack/internal/pkg/password"
	"corntrack/internal/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors; these surface as 401
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Account errors
var (
	ErrUserNotFound       = domain.NewError(domain.KindNotFound, "user not found")
	ErrEmailAlreadyExists = domain.NewError(domain.KindConflict, "email already registered")
	ErrAccountPending     = domain.NewError(domain.KindPermission, "account is waiting for approval")
	ErrAccountRejected    = domain.NewError(domain.KindPermission, "account registration was rejected")
)

// AuthService handles authentication business logic
type AuthService struct {
	store    *repositories.Store
	signer   *jwt.Signer
	notifier *NotificationService
}

// NewAuthService creates a new auth service
func NewAuthService(store *repositories.Store, signer *jwt.Signer, notifier *NotificationService) *AuthService {
	if notifier == nil {
		notifier = NewNotificationService(nil)
	}
	return &AuthService{
		store:    store,
		signer:   signer,
		notifier: notifier,
	}
}

// RegisterInput registers a farm and its first admin
type RegisterInput struct {
	OrganizationName    string `json:"organization_name" validate:"required,max=150"`
	OrganizationAddress string `json:"organization_address" validate:"max=500"`
	OrganizationPhone   string `json:"organization_phone" validate:"max=30"`
	Name                string `json:"name" validate:"required,max=100"`
	Email               string `json:"email" validate:"required,email,max=100"`
	Phone               string `json:"phone" validate:"max=30"`
	Password            string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates an organization and a PENDING farm admin. Application
// admins are notified; the user can log in once approved.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	var (
		org  *models.Organization
		user *models.User
	)
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		exists, err := tx.Users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		org = &models.Organization{
			Name:    strings.TrimSpace(input.OrganizationName),
			Address: strings.TrimSpace(input.OrganizationAddress),
			Phone:   strings.TrimSpace(input.OrganizationPhone),
			Status:  domain.OrganizationStatusActive,
		}
		if err := tx.Organizations.Create(ctx, org); err != nil {
			return err
		}

		user = &models.User{
			OrganizationID: &org.ID,
			Name:           strings.TrimSpace(input.Name),
			Email:          strings.ToLower(strings.TrimSpace(input.Email)),
			Phone:          strings.TrimSpace(input.Phone),
			Password:       hashedPassword,
			Role:           domain.RoleFarmAdmin,
			Status:         domain.UserStatusPending,
		}
		return tx.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Farm registered: %s (admin %s, pending approval)", org.Name, user.Email)
	s.notifier.NotifyRegistrationPending(ctx, org, user, s.applicationAdminEmails(ctx))

	resp := user.ToResponse()
	resp.OrganizationName = org.Name
	return resp, nil
}

// Login authenticates an APPROVED user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if err := checkUserStatus(user); err != nil {
		return nil, err
	}

	resp, err := s.issue(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)
	return resp, nil
}

// RefreshToken rotates a refresh token. Presenting a revoked token revokes
// every session of its user.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.signer.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	var resp *AuthResponse
	var reused bool
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		stored, err := tx.RefreshTokens.GetByTokenHash(ctx, password.HashToken(refreshToken))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if stored.UserID != claims.UserID {
			return ErrInvalidToken
		}
		if stored.IsRevoked() {
			reused = true
			return ErrTokenRevoked
		}
		if stored.IsExpired() {
			return ErrTokenExpired
		}

		user, err := tx.Users.GetByID(ctx, claims.UserID)
		if err != nil {
			return lookupErr(err, ErrUserNotFound)
		}
		if err := checkUserStatus(user); err != nil {
			return err
		}

		// Token rotation
		if err := tx.RefreshTokens.Revoke(ctx, stored.ID); err != nil {
			if errors.Is(err, repositories.ErrAlreadyRevoked) {
				reused = true
				return ErrTokenRevoked
			}
			return err
		}
		resp, err = s.issue(ctx, tx, user)
		return err
	})
	if reused {
		if err := s.store.RefreshTokens.RevokeAllByUserID(ctx, claims.UserID); err != nil {
			log.Printf("⚠️ Could not revoke sessions of user #%d: %v", claims.UserID, err)
		}
		log.Printf("⚠️ Revoked refresh token reused by user #%d, all sessions revoked", claims.UserID)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.store.RefreshTokens.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.store.RefreshTokens.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return s.signer.ValidateAccessToken(accessToken)
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context, caller domain.Identity) (*models.UserResponse, error) {
	user, err := s.store.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound)
	}

	return s.userResponse(ctx, s.store, user), nil
}

// userResponse is the public view of a user with its organization name
func (s *AuthService) userResponse(ctx context.Context, store *repositories.Store, user *models.User) *models.UserResponse {
	resp := user.ToResponse()
	if user.OrganizationID != nil {
		if org, err := store.Organizations.GetByID(ctx, *user.OrganizationID); err == nil {
			resp.OrganizationName = org.Name
		}
	}
	return resp
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.RefreshTokens.DeleteExpired(ctx)
}

// AccessTTL returns the access cookie lifetime
func (s *AuthService) AccessTTL() time.Duration { return s.signer.AccessTTL() }

// RefreshTTL returns the refresh cookie lifetime
func (s *AuthService) RefreshTTL() time.Duration { return s.signer.RefreshTTL() }

// issue generates a token pair and stores the refresh token hash
func (s *AuthService) issue(ctx context.Context, store *repositories.Store, user *models.User) (*AuthResponse, error) {
	accessToken, err := s.signer.GenerateAccessToken(user.Identity(), user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signer.GenerateRefreshToken(user.ID, uuid.New().String())
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.signer.RefreshTTL()),
	}
	if err := store.RefreshTokens.Create(ctx, token); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         s.userResponse(ctx, store, user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) applicationAdminEmails(ctx context.Context) []string {
	role := domain.RoleApplicationAdmin
	admins, _, err := s.store.Users.List(ctx, repositories.UserFilter{Role: &role}, 0, 50)
	if err != nil {
		log.Printf("⚠️ Could not load application admins: %v", err)
		return nil
	}
	emails := make([]string, 0, len(admins))
	for _, u := range admins {
		emails = append(emails, u.Email)
	}
	return emails
}

func checkUserStatus(user *models.User) error {
	switch user.Status {
	case domain.UserStatusApproved:
		return nil
	case domain.UserStatusRejected:
		return ErrAccountRejected
	default:
		return ErrAccountPending
	}
}
