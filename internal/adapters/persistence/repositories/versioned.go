package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateVersioned saves every column of model only when the stored version
// still equals *version, then bumps *version. On a stale version nothing is
// written and *version is restored.
func updateVersioned(ctx context.Context, db *gorm.DB, model interface{}, version *uint) error {
	prev := *version
	*version = prev + 1

	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		*version = prev
		return result.Error
	}
	if result.RowsAffected == 0 {
		*version = prev
		return ErrStaleVersion
	}
	return nil
}
