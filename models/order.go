package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusAccepted
	OrderStatusShipped
	OrderStatusDelivered
	OrderStatusCancelled
)

var orderStatusNames = [...]string{"Pending", "Accepted", "Shipped", "Delivered", "Cancelled"}

func (s OrderStatus) Valid() bool {
	return s >= OrderStatusPending && s <= OrderStatusCancelled
}

func (s OrderStatus) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return orderStatusNames[s]
}

// Next is the admin "advance" step: Pending -> Accepted -> Shipped -> Delivered.
// Delivered and Cancelled stay where they are.
func (s OrderStatus) Next() OrderStatus {
	if s >= OrderStatusPending && s < OrderStatusDelivered {
		return s + 1
	}
	return s
}

// Prev is the admin "rewind" step, floored at Pending.
func (s OrderStatus) Prev() OrderStatus {
	if s > OrderStatusPending && s <= OrderStatusCancelled {
		return s - 1
	}
	return OrderStatusPending
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Title     string             `bson:"title" json:"title"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference string             `bson:"reference" json:"reference"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Items     []OrderItem        `bson:"items" json:"items"`
	Total     float64            `bson:"total" json:"total"`
	Address   string             `bson:"address" json:"address"`
	Phone     string             `bson:"phone" json:"phone"`
	Status    OrderStatus        `bson:"status" json:"status"`
	Version   int64              `bson:"version" json:"version"`

	PendingEmailSent     bool       `bson:"pendingEmailSent" json:"pendingEmailSent"`
	PendingEmailSentAt   *time.Time `bson:"pendingEmailSentAt,omitempty" json:"pendingEmailSentAt,omitempty"`
	DeliveredEmailSent   bool       `bson:"deliveredEmailSent" json:"deliveredEmailSent"`
	DeliveredEmailSentAt *time.Time `bson:"deliveredEmailSentAt,omitempty" json:"deliveredEmailSentAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
