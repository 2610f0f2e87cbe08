package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	GoogleID   string             `bson:"googleId,omitempty" json:"googleId,omitempty"`
	FacebookID string             `bson:"facebookId,omitempty" json:"facebookId,omitempty"`
	Role       Role               `bson:"role" json:"role"`
	// PromoEmailSentAt is the last time the weekly promotional mail went out.
	PromoEmailSentAt *time.Time `bson:"promoEmailSentAt,omitempty" json:"promoEmailSentAt,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
