package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UsersCollection is where accounts live.
const UsersCollection = "users"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account that can sign in to the site backend.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	Name      string             `bson:"name"           json:"name"`
	Email     string             `bson:"email"          json:"email"`
	Password  string             `bson:"password"       json:"-"` // bcrypt hash, never serialised
	Role      string             `bson:"role"           json:"role"`
	CreatedAt time.Time          `bson:"createdAt"      json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"      json:"updatedAt"`
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
