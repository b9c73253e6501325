package mongorepo

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

// casAttempts bounds the optimistic retries of Update and Delete.
const casAttempts = 10

// ReviewRepository stores reviews inside their equipment document. Every
// write changes the review and the running RatingSum/TotalReviews in one
// single-document update, so no read-modify-write window exists.
type ReviewRepository struct {
	c collection[equipmentDoc, int64]
}

func NewReviewRepository(e *env) *ReviewRepository {
	return &ReviewRepository{c: newCollection[equipmentDoc, int64](e, equipmentCollection)}
}

var reviewsOnly = bson.M{"Reviews": 1}

func (r *ReviewRepository) GetAll(ctx context.Context, tx repository.Tx) ([]domain.Review, error) {
	docs, err := r.c.find(ctx, tx, "list reviews", bson.M{"Reviews.0": bson.M{"$exists": true}},
		options.Find().SetProjection(reviewsOnly))
	if err != nil {
		return nil, err
	}
	out := []domain.Review{}
	for _, d := range docs {
		out = append(out, sortedReviews(d)...)
	}
	return out, nil
}

func (r *ReviewRepository) ListByEquipment(ctx context.Context, tx repository.Tx, equipmentID int64) ([]domain.Review, error) {
	doc, err := r.c.findOne(ctx, tx, "list reviews by equipment", bson.M{"_id": equipmentID},
		options.FindOne().SetProjection(reviewsOnly))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []domain.Review{}, nil
	}
	return sortedReviews(*doc), nil
}

func sortedReviews(d equipmentDoc) []domain.Review {
	out := make([]domain.Review, 0, len(d.Reviews))
	for _, rv := range d.Reviews {
		rv.EquipmentID = d.ID
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func (r *ReviewRepository) GetByID(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (*domain.Review, error) {
	doc, err := r.c.findOne(ctx, tx, "get review",
		bson.M{"_id": key.EquipmentID, "Reviews.CustomerId": key.CustomerID},
		options.FindOne().SetProjection(bson.M{
			"Reviews": bson.M{"$elemMatch": bson.M{"CustomerId": key.CustomerID}},
		}))
	if err != nil || doc == nil || len(doc.Reviews) == 0 {
		return nil, err
	}
	rv := doc.Reviews[0]
	rv.EquipmentID = key.EquipmentID
	return &rv, nil
}

func (r *ReviewRepository) Add(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	in := *review
	in.CreatedAt = repository.Now()
	in.UpdatedAt = in.CreatedAt

	n, err := r.c.update(ctx, tx, "add review",
		bson.M{"_id": in.EquipmentID, "Reviews.CustomerId": bson.M{"$ne": in.CustomerID}},
		bson.M{
			"$push": bson.M{"Reviews": in},
			"$inc":  bson.M{"TotalReviews": int32(1), "RatingSum": int64(in.Rating)},
		})
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return &in, nil
	}

	// Nothing matched: either the line is gone or the customer already
	// reviewed it.
	exists, err := r.c.findOne(ctx, tx, "add review", bson.M{"_id": in.EquipmentID},
		options.FindOne().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	if exists == nil {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrConflict
}

// Update swaps the rating only if it still holds the value just read, and
// moves RatingSum by the difference in the same update.
func (r *ReviewRepository) Update(ctx context.Context, tx repository.Tx, review *domain.Review) (*domain.Review, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		cur, err := r.GetByID(ctx, tx, review.Key())
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, repository.ErrNotFound
		}

		now := repository.Now()
		n, err := r.c.update(ctx, tx, "update review",
			bson.M{
				"_id": review.EquipmentID,
				"Reviews": bson.M{"$elemMatch": bson.M{
					"CustomerId": review.CustomerID,
					"Rating":     cur.Rating,
				}},
			},
			bson.M{
				"$set": bson.M{
					"Reviews.$.Rating":    review.Rating,
					"Reviews.$.Comment":   review.Comment,
					"Reviews.$.UpdatedAt": now,
				},
				"$inc": bson.M{"RatingSum": int64(review.Rating - cur.Rating)},
			})
		if err != nil {
			return nil, err
		}
		if n == 1 {
			out := *cur
			out.Rating = review.Rating
			out.Comment = review.Comment
			out.UpdatedAt = now
			return &out, nil
		}
	}
	return nil, repository.ErrConcurrentUpdate
}

func (r *ReviewRepository) Delete(ctx context.Context, tx repository.Tx, key domain.ReviewKey) (bool, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		cur, err := r.GetByID(ctx, tx, key)
		if err != nil || cur == nil {
			return false, err
		}

		n, err := r.c.update(ctx, tx, "delete review",
			bson.M{
				"_id": key.EquipmentID,
				"Reviews": bson.M{"$elemMatch": bson.M{
					"CustomerId": key.CustomerID,
					"Rating":     cur.Rating,
				}},
			},
			bson.M{
				"$pull": bson.M{"Reviews": bson.M{"CustomerId": key.CustomerID}},
				"$inc":  bson.M{"TotalReviews": int32(-1), "RatingSum": -int64(cur.Rating)},
			})
		if err != nil {
			return false, err
		}
		if n == 1 {
			return true, nil
		}
	}
	return false, repository.ErrConcurrentUpdate
}
