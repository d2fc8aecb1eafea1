package repositories

import (
	"context"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"

	"gorm.io/gorm"
)

// invitationRepository implements InvitationRepository interface
type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepository) GetByID(ctx context.Context, id uint) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) Update(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *invitationRepository) ListByOrganization(ctx context.Context, orgID uint, status *domain.InvitationStatus) ([]*models.Invitation, error) {
	var invitations []*models.Invitation
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}

func (r *invitationRepository) ExistsPending(ctx context.Context, orgID uint, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("organization_id = ? AND email = ? AND status = ?", orgID, strings.ToLower(email), domain.InvitationStatusPending).
		Count(&count).Error
	return count > 0, err
}

// ExpirePending marks every pending invitation past its expiry as EXPIRED
func (r *invitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", domain.InvitationStatusPending, now).
		Update("status", domain.InvitationStatusExpired)
	return result.RowsAffected, result.Error
}
