package mongorepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// RentalRepository stores items inside the rental document, which makes Add
// atomic without a transaction.
type RentalRepository struct {
	c collection[domain.Rental, int64]
}

func NewRentalRepository(e *env) *RentalRepository {
	return &RentalRepository{c: newCollection[domain.Rental, int64](e, rentalsCollection)}
}

func normalizeItems(rs []domain.Rental) []domain.Rental {
	for i := range rs {
		if rs[i].Items == nil {
			rs[i].Items = []domain.RentalItem{}
		}
	}
	return rs
}

func (r *RentalRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Rental, error) {
	out, err := r.c.getAll(ctx, tx)
	return normalizeItems(out), err
}

func (r *RentalRepository) ListByCustomer(ctx context.Context, tx repository.Tx, customerID int64) ([]domain.Rental, error) {
	out, err := r.c.find(ctx, tx, "list rentals by customer", bson.M{"CustomerId": customerID})
	return normalizeItems(out), err
}

func (r *RentalRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Rental, error) {
	out, err := r.c.getByID(ctx, tx, id)
	if err != nil || out == nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.RentalItem{}
	}
	return out, nil
}

func (r *RentalRepository) Add(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	seq := r.c.env.seq
	id, err := seq.NextLongID(ctx, rentalsCollection)
	if err != nil {
		return nil, err
	}
	in := *rental
	in.ID = id
	if in.Status == "" {
		in.Status = domain.RentalPending
	}
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	in.Items = make([]domain.RentalItem, 0, len(rental.Items))
	for _, it := range rental.Items {
		itemID, err := seq.NextLongID(ctx, rentalItemsSequence)
		if err != nil {
			return nil, err
		}
		in.Items = append(in.Items, domain.RentalItem{
			ID:              itemID,
			RentalID:        id,
			EquipmentItemID: it.EquipmentItemID,
			PricePerDay:     it.PricePerDay,
		})
	}
	if err := r.c.insert(ctx, tx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Update writes rental fields only; items are fixed at booking time.
func (r *RentalRepository) Update(ctx context.Context, tx repository.Tx, rental *domain.Rental) (*domain.Rental, error) {
	out, err := r.c.set(ctx, tx, rental.ID, bson.M{
		"CustomerId": rental.CustomerID,
		"Status":     rental.Status,
		"StartDate":  rental.StartDate,
		"EndDate":    rental.EndDate,
		"TotalPrice": rental.TotalPrice,
		"UpdatedAt":  repository.Now(),
	})
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.RentalItem{}
	}
	return out, nil
}

func (r *RentalRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	return r.c.delete(ctx, tx, id)
}
