package repositories

import (
	"context"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"

	"gorm.io/gorm"
)

// deliveryRepository implements DeliveryRepository interface
type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	if delivery.Version == 0 {
		delivery.Version = 1
	}
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *deliveryRepository) GetByID(ctx context.Context, id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&delivery).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *models.Delivery) error {
	return updateVersioned(ctx, r.db, delivery, &delivery.Version)
}

// Delete soft deletes a delivery if nobody changed it since it was read
func (r *deliveryRepository) Delete(ctx context.Context, delivery *models.Delivery) error {
	result := r.db.WithContext(ctx).
		Where("version = ?", delivery.Version).
		Delete(delivery)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}

func (r *deliveryRepository) List(ctx context.Context, orgID uint, filter DeliveryFilter, offset, limit int) ([]*models.Delivery, int64, error) {
	var deliveries []*models.Delivery
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("organization_id = ?", orgID)
	if filter.LorryID != nil {
		query = query.Where("lorry_id = ?", *filter.LorryID)
	}
	if filter.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.FieldManagerID != nil {
		query = query.Where("field_manager_id = ?", *filter.FieldManagerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&deliveries).Error
	return deliveries, total, err
}

func (r *deliveryRepository) ListByLorry(ctx context.Context, lorryID uint) ([]*models.Delivery, error) {
	var deliveries []*models.Delivery
	err := r.db.WithContext(ctx).Where("lorry_id = ?", lorryID).Order("id ASC").Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Delivery, error) {
	var deliveries []*models.Delivery
	err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("id ASC").Find(&deliveries).Error
	return deliveries, err
}

// ExistsOpenForFarmer checks for a PENDING/IN_PROGRESS delivery of the farmer on the lorry
func (r *deliveryRepository) ExistsOpenForFarmer(ctx context.Context, lorryID, farmerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("lorry_id = ? AND farmer_id = ?", lorryID, farmerID).
		Where("status IN ?", []domain.DeliveryStatus{domain.DeliveryStatusPending, domain.DeliveryStatusInProgress}).
		Count(&count).Error
	return count > 0, err
}
