package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// equipmentDoc is the stored shape of an equipment line: reviews live inside
// the document so a review and its aggregate change in one atomic update.
// AverageRating is not stored; it is derived from RatingSum/TotalReviews.
type equipmentDoc struct {
	domain.Equipment `bson:",inline"`
	Reviews          []domain.Review `bson:"Reviews"`
}

var withoutReviews = bson.M{"Reviews": 0}

type EquipmentRepository struct {
	c collection[domain.Equipment, int64]
}

func NewEquipmentRepository(e *env) *EquipmentRepository {
	return &EquipmentRepository{c: newCollection[domain.Equipment, int64](e, equipmentCollection)}
}

func withAverage(e *domain.Equipment) {
	e.AverageRating = domain.Average(e.RatingSum, e.TotalReviews)
}

func (r *EquipmentRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Equipment, error) {
	out, err := r.c.find(ctx, tx, "list equipment", bson.D{}, options.Find().SetProjection(withoutReviews))
	if err != nil {
		return nil, err
	}
	for i := range out {
		withAverage(&out[i])
	}
	return out, nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, tx repository.Tx, id int64) (*domain.Equipment, error) {
	e, err := r.c.findOne(ctx, tx, "get equipment", bson.M{"_id": id}, options.FindOne().SetProjection(withoutReviews))
	if err != nil || e == nil {
		return nil, err
	}
	withAverage(e)
	return e, nil
}

func (r *EquipmentRepository) Add(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	id, err := r.c.env.seq.NextLongID(ctx, equipmentCollection)
	if err != nil {
		return nil, err
	}
	in := *e
	in.ID = id
	in.AverageRating, in.TotalReviews, in.RatingSum = 0, 0, 0
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt
	if err := r.c.insert(ctx, tx, &equipmentDoc{Equipment: in, Reviews: []domain.Review{}}); err != nil {
		return nil, err
	}
	return &in, nil
}

// Update never touches Reviews or the aggregates.
func (r *EquipmentRepository) Update(ctx context.Context, tx repository.Tx, e *domain.Equipment) (*domain.Equipment, error) {
	n, err := r.c.update(ctx, tx, "update equipment", bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"CategoryId":  e.CategoryID,
		"OwnerId":     e.OwnerID,
		"Name":        e.Name,
		"Description": e.Description,
		"PricePerDay": e.PricePerDay,
		"IsModerated": e.IsModerated,
		"UpdatedBy":   e.UpdatedBy,
		"UpdatedAt":   repository.Now(),
	}})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	out, err := r.GetByID(ctx, tx, e.ID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

// Delete drops the line with its embedded reviews. A line that still has
// items is refused with ErrConflict.
func (r *EquipmentRepository) Delete(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	inUse, err := r.c.env.exists(ctx, tx, "delete equipment", equipmentItemsCollection, bson.M{"EquipmentId": id})
	if err != nil {
		return false, err
	}
	if inUse {
		return false, fmt.Errorf("mongorepo: delete equipment %d: items still reference it: %w", id, repository.ErrConflict)
	}
	return r.c.delete(ctx, tx, id)
}
