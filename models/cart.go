package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrItemNotInCart = errors.New("item not found in cart")

type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart is one user's cart. Version is bumped on every save and guards
// concurrent read-modify-write cycles.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	Version   int64              `bson:"version" json:"version"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

func (c *Cart) index(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges quantity into the existing line for productID or appends a new one.
func (c *Cart) Add(productID primitive.ObjectID, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
}

// SetQuantity sets the line quantity; a quantity <= 0 drops the line.
func (c *Cart) SetQuantity(productID primitive.ObjectID, quantity int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	}
	c.Items[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID primitive.ObjectID) error {
	return c.SetQuantity(productID, 0)
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}
