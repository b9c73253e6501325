package domain

import "time"

type RentalStatus string

const (
	RentalPending   RentalStatus = "pending"
	RentalConfirmed RentalStatus = "confirmed"
	RentalActive    RentalStatus = "active"
	RentalCompleted RentalStatus = "completed"
	RentalCancelled RentalStatus = "cancelled"
)

type Rental struct {
	ID         int64        `json:"id" bson:"_id"`
	CustomerID int64        `json:"customer_id" bson:"CustomerId"`
	Status     RentalStatus `json:"status" bson:"Status"`
	StartDate  time.Time    `json:"start_date" bson:"StartDate"`
	EndDate    time.Time    `json:"end_date" bson:"EndDate"`
	TotalPrice float64      `json:"total_price" bson:"TotalPrice"`
	Items      []RentalItem `json:"items" bson:"Items"`
	CreatedAt  time.Time    `json:"created_at" bson:"CreatedAt"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"UpdatedAt"`
}

// RentalItem keeps the price that was in effect when the rental was booked.
type RentalItem struct {
	ID              int64   `json:"id" bson:"Id"`
	RentalID        int64   `json:"rental_id" bson:"RentalId"`
	EquipmentItemID int64   `json:"equipment_item_id" bson:"EquipmentItemId"`
	PricePerDay     float64 `json:"price_per_day" bson:"PricePerDay"`
}

// Days counts started days between start and end, at least one.
func (r *Rental) Days() int {
	d := int(r.EndDate.Sub(r.StartDate).Hours()+23) / 24
	if d < 1 {
		return 1
	}
	return d
}
