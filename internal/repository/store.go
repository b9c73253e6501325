package repository

import "time"

// Store is the repository family and transaction manager of one backend,
// chosen once at process start.
type Store struct {
	Backend Backend
	Tx      TxManager

	Categories     CategoryRepository
	Offices        OfficeRepository
	Users          UserRepository
	Equipment      EquipmentRepository
	EquipmentItems EquipmentItemRepository
	Rentals        RentalRepository
	Reviews        ReviewRepository
	RefreshTokens  RefreshTokenRepository

	closeFn func() error
}

// OnClose registers the function that releases the backend's connections.
func (s *Store) OnClose(fn func() error) {
	s.closeFn = fn
}

func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Now is the timestamp source for every backend. Millisecond precision keeps
// values identical across engines that store different resolutions.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
