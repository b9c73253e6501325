package domain

import "time"

// ReviewKey identifies a review: one per customer per equipment line.
type ReviewKey struct {
	CustomerID  int64
	EquipmentID int64
}

type Review struct {
	CustomerID  int64     `json:"customer_id" bson:"CustomerId"`
	EquipmentID int64     `json:"equipment_id" bson:"EquipmentId"`
	Rating      int32     `json:"rating" bson:"Rating"`
	Comment     string    `json:"comment,omitempty" bson:"Comment"`
	CreatedAt   time.Time `json:"created_at" bson:"CreatedAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"UpdatedAt"`
}

func (r *Review) Key() ReviewKey {
	return ReviewKey{CustomerID: r.CustomerID, EquipmentID: r.EquipmentID}
}

const (
	MinRating = 1
	MaxRating = 5
)
