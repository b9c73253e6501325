package rental

import (
	"context"
	"math"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type Service struct {
	tx        repository.TxManager
	level     repository.IsolationLevel
	rentals   repository.RentalRepository
	items     repository.EquipmentItemRepository
	equipment repository.EquipmentRepository
}

func NewService(store *repository.Store, level repository.IsolationLevel) *Service {
	return &Service{
		tx:        store.Tx,
		level:     level,
		rentals:   store.Rentals,
		items:     store.EquipmentItems,
		equipment: store.Equipment,
	}
}

// Create books the items for the period. Prices are copied from the
// equipment line at booking time and every item is claimed with a
// conditional status swap, so of two bookings racing for one item only one
// wins; any failure leaves nothing behind.
func (s *Service) Create(ctx context.Context, customerID int64, req CreateRentalRequest) (*domain.Rental, error) {
	if customerID <= 0 || len(req.ItemIDs) == 0 || !req.EndDate.After(req.StartDate) {
		return nil, ErrValidation
	}
	seen := make(map[int64]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		if id <= 0 || seen[id] {
			return nil, ErrValidation
		}
		seen[id] = true
	}

	r := &domain.Rental{
		CustomerID: customerID,
		Status:     domain.RentalPending,
		StartDate:  req.StartDate.UTC().Truncate(time.Millisecond),
		EndDate:    req.EndDate.UTC().Truncate(time.Millisecond),
	}
	days := float64(r.Days())

	var created *domain.Rental
	err := repository.WithTx(ctx, s.tx, s.level, func(tx repository.Tx) error {
		var perDay float64
		for _, id := range req.ItemIDs {
			it, err := s.items.GetByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if it == nil {
				return ErrNotFound
			}
			eq, err := s.equipment.GetByID(ctx, tx, it.EquipmentID)
			if err != nil {
				return err
			}
			if eq == nil {
				return ErrNotFound
			}

			claimed, err := s.items.SwapStatus(ctx, tx, id, domain.ItemAvailable, domain.ItemRented)
			if err != nil {
				return err
			}
			if !claimed {
				return ErrItemUnavailable
			}
			r.Items = append(r.Items, domain.RentalItem{EquipmentItemID: id, PricePerDay: eq.PricePerDay})
			perDay += eq.PricePerDay
		}
		r.TotalPrice = math.Round(perDay*days*100) / 100

		var err error
		created, err = s.rentals.Add(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel marks the rental cancelled and returns its items to the pool.
func (s *Service) Cancel(ctx context.Context, customerID, rentalID int64) (*domain.Rental, error) {
	var out *domain.Rental
	err := repository.WithTx(ctx, s.tx, s.level, func(tx repository.Tx) error {
		r, err := s.rentals.GetByID(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if r.CustomerID != customerID {
			return ErrForbidden
		}
		if r.Status == domain.RentalCancelled || r.Status == domain.RentalCompleted {
			return ErrInvalidStatus
		}

		// a unit retired since booking stays retired
		for _, ri := range r.Items {
			if _, err := s.items.SwapStatus(ctx, tx, ri.EquipmentItemID, domain.ItemRented, domain.ItemAvailable); err != nil {
				return err
			}
		}

		r.Status = domain.RentalCancelled
		out, err = s.rentals.Update(ctx, tx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Rental, error) {
	return s.rentals.ListByCustomer(ctx, nil, customerID)
}

func (s *Service) Get(ctx context.Context, customerID, rentalID int64) (*domain.Rental, error) {
	r, err := s.rentals.GetByID(ctx, nil, rentalID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	if r.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return r, nil
}
