package sqlrepo

import (
	"database/sql"
	"time"

	"equiprent/internal/database"
	"equiprent/internal/repository"
)

// NewStore wires the hand-written SQL repositories around one pool.
func NewStore(db *sql.DB, dialect database.Dialect, queryTimeout time.Duration) *repository.Store {
	h := NewDB(db, dialect, queryTimeout)
	s := &repository.Store{
		Backend:        repository.BackendSQL,
		Tx:             NewTxManager(db, dialect),
		Categories:     NewCategoryRepository(h),
		Offices:        NewOfficeRepository(h),
		Users:          NewUserRepository(h),
		Equipment:      NewEquipmentRepository(h),
		EquipmentItems: NewEquipmentItemRepository(h),
		Rentals:        NewRentalRepository(h),
		Reviews:        NewReviewRepository(h),
		RefreshTokens:  NewRefreshTokenRepository(h),
	}
	s.OnClose(db.Close)
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
