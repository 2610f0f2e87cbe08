package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinStars = 1
	MaxStars = 5
)

type Rating struct {
	Star     int                `bson:"star" json:"star"`
	Comment  string             `bson:"comment,omitempty" json:"comment,omitempty"`
	PostedBy primitive.ObjectID `bson:"postedBy" json:"postedBy"`
	PostedAt time.Time          `bson:"postedAt" json:"postedAt"`
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title" form:"title" validate:"required"`
	Description     string             `bson:"description" json:"description" form:"description"`
	Price           float64            `bson:"price" json:"price" form:"price" validate:"gte=0"`
	DiscountedPrice float64            `bson:"discountedPrice" json:"discountedPrice" form:"discountedPrice" validate:"gte=0"`
	WholesalePrice  float64            `bson:"wholesalePrice" json:"wholesalePrice" form:"wholesalePrice" validate:"gte=0"`
	Images          []string           `bson:"images" json:"images" form:"images" validate:"dive,url"`
	Category        string             `bson:"category" json:"category" form:"category"`
	SubCategory     string             `bson:"subCategory" json:"subCategory" form:"subCategory"`
	Stock           int                `bson:"stock" json:"stock" form:"stock" validate:"gte=0"`
	Ratings         []Rating           `bson:"ratings" json:"ratings"`
	// AverageRating is filled in by catalog queries and never stored.
	AverageRating float64   `bson:"averageRating,omitempty" json:"averageRating"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EffectivePrice is the unit price a customer pays.
func (p Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

// Rate upserts the rating posted by userID. It reports whether an existing
// rating was replaced.
func (p *Product) Rate(userID primitive.ObjectID, star int, comment string, now time.Time) bool {
	for i := range p.Ratings {
		if p.Ratings[i].PostedBy == userID {
			p.Ratings[i].Star = star
			p.Ratings[i].Comment = comment
			p.Ratings[i].PostedAt = now
			return true
		}
	}
	p.Ratings = append(p.Ratings, Rating{
		Star:     star,
		Comment:  comment,
		PostedBy: userID,
		PostedAt: now,
	})
	return false
}

func AverageStars(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r.Star
	}
	return float64(total) / float64(len(ratings))
}
