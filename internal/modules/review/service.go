package review

import (
	"context"
	"errors"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// Service writes reviews through the repository, which keeps the equipment
// rating aggregates in step.
type Service struct {
	reviews   repository.ReviewRepository
	equipment repository.EquipmentRepository
}

func NewService(reviews repository.ReviewRepository, equipment repository.EquipmentRepository) *Service {
	return &Service{reviews: reviews, equipment: equipment}
}

func validRating(r int32) bool {
	return r >= domain.MinRating && r <= domain.MaxRating
}

// Submit adds the customer's review and returns it with the refreshed
// equipment line.
func (s *Service) Submit(ctx context.Context, customerID, equipmentID int64, rating int32, comment string) (*domain.Review, *domain.Equipment, error) {
	if customerID <= 0 || equipmentID <= 0 || !validRating(rating) {
		return nil, nil, ErrInvalidRequest
	}

	rv, err := s.reviews.Add(ctx, nil, &domain.Review{
		CustomerID:  customerID,
		EquipmentID: equipmentID,
		Rating:      rating,
		Comment:     comment,
	})
	if err != nil {
		return nil, nil, mapErr(err)
	}
	eq, err := s.refreshed(ctx, equipmentID)
	if err != nil {
		return nil, nil, err
	}
	return rv, eq, nil
}

// Edit changes the rating or comment of an existing review.
func (s *Service) Edit(ctx context.Context, customerID, equipmentID int64, rating int32, comment string) (*domain.Review, *domain.Equipment, error) {
	if customerID <= 0 || equipmentID <= 0 || !validRating(rating) {
		return nil, nil, ErrInvalidRequest
	}

	rv, err := s.reviews.Update(ctx, nil, &domain.Review{
		CustomerID:  customerID,
		EquipmentID: equipmentID,
		Rating:      rating,
		Comment:     comment,
	})
	if err != nil {
		return nil, nil, mapErr(err)
	}
	eq, err := s.refreshed(ctx, equipmentID)
	if err != nil {
		return nil, nil, err
	}
	return rv, eq, nil
}

func (s *Service) Remove(ctx context.Context, customerID, equipmentID int64) error {
	if customerID <= 0 || equipmentID <= 0 {
		return ErrInvalidRequest
	}
	ok, err := s.reviews.Delete(ctx, nil, domain.ReviewKey{CustomerID: customerID, EquipmentID: equipmentID})
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListByEquipment(ctx context.Context, equipmentID int64) ([]domain.Review, error) {
	if equipmentID <= 0 {
		return nil, ErrInvalidRequest
	}
	return s.reviews.ListByEquipment(ctx, nil, equipmentID)
}

func (s *Service) refreshed(ctx context.Context, equipmentID int64) (*domain.Equipment, error) {
	eq, err := s.equipment.GetByID(ctx, nil, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq == nil {
		return nil, ErrNotFound
	}
	return eq, nil
}

func mapErr(err error) error {
	switch {
	case repository.IsNotFound(err):
		return ErrNotFound
	case repository.IsConflict(err):
		return ErrConflict
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return ErrBusy
	}
	return err
}
