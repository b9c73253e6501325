package rental

import "time"

type CreateRentalRequest struct {
	ItemIDs   []int64   `json:"item_ids" binding:"required,min=1" validate:"min=1,dive,gt=0"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required" validate:"gtfield=StartDate"`
}
