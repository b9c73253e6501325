package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"equiprent/internal/database"
)

func models() []interface{} {
	return []interface{}{
		&categoryModel{},
		&officeModel{},
		&userModel{},
		&equipmentModel{},
		&equipmentItemModel{},
		&rentalModel{},
		&rentalItemModel{},
		&reviewModel{},
		&refreshTokenModel{},
	}
}

// Migrate creates the tables and installs the rating triggers.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("gormrepo: automigrate: %w", err)
	}
	for _, stmt := range database.RatingTriggers(dialectOf(db)) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("gormrepo: install rating triggers: %w", err)
		}
	}
	return nil
}
