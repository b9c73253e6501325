package domain

import "time"

type Category struct {
	ID          int32     `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"Name"`
	Slug        string    `json:"slug" bson:"Slug"`
	Description string    `json:"description,omitempty" bson:"Description"`
	CreatedAt   time.Time `json:"created_at" bson:"CreatedAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"UpdatedAt"`
}
