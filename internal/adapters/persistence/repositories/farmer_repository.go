package repositories

import (
	"context"

	"corntrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// farmerRepository implements FarmerRepository interface
type farmerRepository struct {
	db *gorm.DB
}

// NewFarmerRepository creates a new farmer repository
func NewFarmerRepository(db *gorm.DB) FarmerRepository {
	return &farmerRepository{db: db}
}

func (r *farmerRepository) Create(ctx context.Context, farmer *models.Farmer) error {
	return r.db.WithContext(ctx).Create(farmer).Error
}

func (r *farmerRepository) GetByID(ctx context.Context, id uint) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&farmer).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *farmerRepository) Update(ctx context.Context, farmer *models.Farmer) error {
	return r.db.WithContext(ctx).Save(farmer).Error
}

// List lists an organization's farmers, optionally by name/phone search and status
func (r *farmerRepository) List(ctx context.Context, orgID uint, filter FarmerFilter, offset, limit int) ([]*models.Farmer, int64, error) {
	var farmers []*models.Farmer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Farmer{}).Where("organization_id = ?", orgID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ? OR village LIKE ?", like, like, like)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&farmers).Error
	return farmers, total, err
}

func (r *farmerRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Farmer, error) {
	var farmers []*models.Farmer
	if len(ids) == 0 {
		return farmers, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&farmers).Error
	return farmers, err
}

func (r *farmerRepository) CountByOrganization(ctx context.Context, orgID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Farmer{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}
