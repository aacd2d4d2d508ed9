// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// User represents a registered account. The password hash is never
// serialized to JSON.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash
	Role       string             `bson:"role" json:"role"`  // admin | manager | member
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserRef is the minimal identity payload embedded in realtime events
// and activity listings.
type UserRef struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Ref returns the minimal identity view of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}
