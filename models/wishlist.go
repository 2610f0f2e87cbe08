package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Wishlist struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID   `bson:"userId" json:"userId"`
	ProductIDs []primitive.ObjectID `bson:"productIds" json:"productIds"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Add appends productID unless already present. Reports whether it changed.
func (w *Wishlist) Add(productID primitive.ObjectID) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return false
		}
	}
	w.ProductIDs = append(w.ProductIDs, productID)
	return true
}

func (w *Wishlist) Remove(productID primitive.ObjectID) bool {
	for i, id := range w.ProductIDs {
		if id == productID {
			w.ProductIDs = append(w.ProductIDs[:i], w.ProductIDs[i+1:]...)
			return true
		}
	}
	return false
}
