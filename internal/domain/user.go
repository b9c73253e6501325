package domain

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"Email"`
	PasswordHash string    `json:"-" bson:"PasswordHash"`
	FirstName    string    `json:"first_name" bson:"FirstName"`
	LastName     string    `json:"last_name" bson:"LastName"`
	Role         UserRole  `json:"role" bson:"Role"`
	CreatedAt    time.Time `json:"created_at" bson:"CreatedAt"`
	UpdatedAt    time.Time `json:"updated_at" bson:"UpdatedAt"`
}
