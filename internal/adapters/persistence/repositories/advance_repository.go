package repositories

import (
	"context"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"

	"gorm.io/gorm"
)

// advanceRepository implements AdvanceRepository interface
type advanceRepository struct {
	db *gorm.DB
}

// NewAdvanceRepository creates a new advance payment repository
func NewAdvanceRepository(db *gorm.DB) AdvanceRepository {
	return &advanceRepository{db: db}
}

func (r *advanceRepository) Create(ctx context.Context, advance *models.AdvancePayment) error {
	return r.db.WithContext(ctx).Create(advance).Error
}

func (r *advanceRepository) GetByID(ctx context.Context, id uint) (*models.AdvancePayment, error) {
	var advance models.AdvancePayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&advance).Error; err != nil {
		return nil, err
	}
	return &advance, nil
}

func (r *advanceRepository) Update(ctx context.Context, advance *models.AdvancePayment) error {
	return r.db.WithContext(ctx).Save(advance).Error
}

func (r *advanceRepository) ListByFarmer(ctx context.Context, farmerID uint, offset, limit int) ([]*models.AdvancePayment, int64, error) {
	var advances []*models.AdvancePayment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AdvancePayment{}).Where("farmer_id = ?", farmerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("payment_date DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&advances).Error
	return advances, total, err
}

func (r *advanceRepository) ListOutstanding(ctx context.Context, farmerID uint) ([]*models.AdvancePayment, error) {
	var advances []*models.AdvancePayment
	err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND status = ?", farmerID, domain.PaymentStatusCompleted).
		Where("reconciled_delivery_id IS NULL").
		Order("id ASC").
		Find(&advances).Error
	return advances, err
}

func (r *advanceRepository) ListReconcilable(ctx context.Context, farmerID, deliveryID uint) ([]*models.AdvancePayment, error) {
	var advances []*models.AdvancePayment
	err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND status = ?", farmerID, domain.PaymentStatusCompleted).
		Where("(reconciled_delivery_id IS NULL OR reconciled_delivery_id = ?)", deliveryID).
		Order("id ASC").
		Find(&advances).Error
	return advances, err
}

// Reconcile links advances to a delivery. Every advance must still be
// unlinked or linked to that delivery; otherwise nothing changes and
// ErrStaleVersion is returned.
func (r *advanceRepository) Reconcile(ctx context.Context, ids []uint, deliveryID uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.AdvancePayment{}).
		Where("id IN ?", ids).
		Where("(reconciled_delivery_id IS NULL OR reconciled_delivery_id = ?)", deliveryID).
		Updates(map[string]interface{}{
			"reconciled_delivery_id": deliveryID,
			"reconciled_at":          at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return ErrStaleVersion
	}
	return nil
}

// ReleaseByDelivery returns a deleted delivery's advances to the outstanding balance
func (r *advanceRepository) ReleaseByDelivery(ctx context.Context, deliveryID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.AdvancePayment{}).
		Where("reconciled_delivery_id = ?", deliveryID).
		Updates(map[string]interface{}{
			"reconciled_delivery_id": nil,
			"reconciled_at":          nil,
		}).Error
}
