package models

import (
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subcategory struct {
	Name  string `bson:"name" json:"name" validate:"required"`
	Slug  string `bson:"slug" json:"slug"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Slug          string             `bson:"slug" json:"slug"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Subcategories []Subcategory      `bson:"subcategories" json:"subcategories" validate:"dive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeriveSlugs recomputes the category and subcategory slugs from their names.
func (c *Category) DeriveSlugs() {
	c.Slug = slug.Make(c.Name)
	if c.Subcategories == nil {
		c.Subcategories = []Subcategory{}
	}
	for i := range c.Subcategories {
		c.Subcategories[i].Slug = slug.Make(c.Subcategories[i].Name)
	}
}
