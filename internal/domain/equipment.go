package domain

import "time"

// Equipment is a rentable product line. AverageRating, TotalReviews and
// RatingSum are maintained by the storage backend from the reviews and are
// never written by callers.
type Equipment struct {
	ID            int64     `json:"id" bson:"_id"`
	CategoryID    int32     `json:"category_id" bson:"CategoryId"`
	OwnerID       int64     `json:"owner_id" bson:"OwnerId"`
	Name          string    `json:"name" bson:"Name"`
	Description   string    `json:"description,omitempty" bson:"Description"`
	PricePerDay   float64   `json:"price_per_day" bson:"PricePerDay"`
	AverageRating float64   `json:"average_rating" bson:"-"`
	TotalReviews  int32     `json:"total_reviews" bson:"TotalReviews"`
	RatingSum     int64     `json:"-" bson:"RatingSum"`
	IsModerated   bool      `json:"is_moderated" bson:"IsModerated"`
	CreatedAt     time.Time `json:"created_at" bson:"CreatedAt"`
	UpdatedAt     time.Time `json:"updated_at" bson:"UpdatedAt"`
	CreatedBy     *int64    `json:"created_by,omitempty" bson:"CreatedBy"`
	UpdatedBy     *int64    `json:"updated_by,omitempty" bson:"UpdatedBy"`
}

// Average derives the mean rating from the running sum and count.
func Average(sum int64, count int32) float64 {
	if count <= 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
