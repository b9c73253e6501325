package gormrepo

import (
	"time"

	"gorm.io/gorm"

	"equiprent/internal/repository"
)

// NewStore wires every gorm repository around one handle. The schema must
// already be migrated. A positive queryTimeout bounds every statement that
// runs without a caller deadline; db itself is left untouched.
func NewStore(db *gorm.DB, queryTimeout time.Duration) *repository.Store {
	if queryTimeout > 0 {
		db = db.Session(&gorm.Session{NewDB: true})
		db.DefaultContextTimeout = queryTimeout
	}
	s := &repository.Store{
		Backend:        repository.BackendGorm,
		Tx:             NewTxManager(db),
		Categories:     NewCategoryRepository(db),
		Offices:        NewOfficeRepository(db),
		Users:          NewUserRepository(db),
		Equipment:      NewEquipmentRepository(db),
		EquipmentItems: NewEquipmentItemRepository(db),
		Rentals:        NewRentalRepository(db),
		Reviews:        NewReviewRepository(db),
		RefreshTokens:  NewRefreshTokenRepository(db),
	}
	s.OnClose(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return s
}

var (
	_ repository.CategoryRepository      = (*CategoryRepository)(nil)
	_ repository.OfficeRepository        = (*OfficeRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.EquipmentRepository     = (*EquipmentRepository)(nil)
	_ repository.EquipmentItemRepository = (*EquipmentItemRepository)(nil)
	_ repository.RentalRepository        = (*RentalRepository)(nil)
	_ repository.ReviewRepository        = (*ReviewRepository)(nil)
	_ repository.RefreshTokenRepository  = (*RefreshTokenRepository)(nil)
	_ repository.TxManager               = (*TxManager)(nil)
)
