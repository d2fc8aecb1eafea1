package repositories

import (
	"context"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"

	"gorm.io/gorm"
)

// lorryRepository implements LorryRepository interface
type lorryRepository struct {
	db *gorm.DB
}

// NewLorryRepository creates a new lorry repository
func NewLorryRepository(db *gorm.DB) LorryRepository {
	return &lorryRepository{db: db}
}

func (r *lorryRepository) Create(ctx context.Context, lorry *models.Lorry) error {
	if lorry.Version == 0 {
		lorry.Version = 1
	}
	return r.db.WithContext(ctx).Create(lorry).Error
}

func (r *lorryRepository) GetByID(ctx context.Context, id uint) (*models.Lorry, error) {
	var lorry models.Lorry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lorry).Error; err != nil {
		return nil, err
	}
	return &lorry, nil
}

func (r *lorryRepository) Update(ctx context.Context, lorry *models.Lorry) error {
	return updateVersioned(ctx, r.db, lorry, &lorry.Version)
}

func (r *lorryRepository) List(ctx context.Context, orgID uint, status *domain.LorryStatus, offset, limit int) ([]*models.Lorry, int64, error) {
	var lorries []*models.Lorry
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Lorry{}).Where("organization_id = ?", orgID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&lorries).Error
	return lorries, total, err
}

func (r *lorryRepository) ExistsByPlate(ctx context.Context, orgID uint, plate string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Lorry{}).Where("organization_id = ? AND plate_number = ?", orgID, plate)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *lorryRepository) CountByStatus(ctx context.Context, orgID uint) (map[domain.LorryStatus]int64, error) {
	var rows []struct {
		Status domain.LorryStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Lorry{}).
		Select("status, COUNT(*) AS count").
		Where("organization_id = ?", orgID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.LorryStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
