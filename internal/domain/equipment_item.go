package domain

import "time"

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemRented      ItemStatus = "rented"
	ItemMaintenance ItemStatus = "maintenance"
	ItemRetired     ItemStatus = "retired"
	ItemLost        ItemStatus = "lost"
)

// EquipmentItem is one physical unit of an Equipment line.
// (SerialNumber, EquipmentID) is unique.
type EquipmentItem struct {
	ID           int64      `json:"id" bson:"_id"`
	EquipmentID  int64      `json:"equipment_id" bson:"EquipmentId"`
	OfficeID     *int32     `json:"office_id,omitempty" bson:"OfficeId"`
	SerialNumber string     `json:"serial_number" bson:"SerialNumber"`
	Status       ItemStatus `json:"status" bson:"Status"`
	CreatedAt    time.Time  `json:"created_at" bson:"CreatedAt"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"UpdatedAt"`
}
