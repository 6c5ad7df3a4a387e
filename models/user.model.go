package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleBuyer   = "buyer"
	RoleSeller  = "seller"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User is an account. Credential lifecycle beyond register/login
// (reset, verification, role administration) lives in a separate
// service.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      string             `bson:"role" json:"role"`
	Wishlist  []string           `bson:"wishlist" json:"wishlist"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
