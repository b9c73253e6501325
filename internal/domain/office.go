package domain

import "time"

type Office struct {
	ID        int32     `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"Name"`
	Address   string    `json:"address" bson:"Address"`
	City      string    `json:"city" bson:"City"`
	CreatedAt time.Time `json:"created_at" bson:"CreatedAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"UpdatedAt"`
}
