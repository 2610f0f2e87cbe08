package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (k OrderEmail) flagField() string {
	return string(k) + "EmailSent"
}

// awaitingFilter selects orders that still owe the given email.
func (k OrderEmail) awaitingFilter() (bson.M, error) {
	switch k {
	case OrderEmailPending:
		return bson.M{"pendingEmailSent": false}, nil
	case OrderEmailDelivered:
		return bson.M{"status": models.OrderStatusDelivered, "deliveredEmailSent": false}, nil
	default:
		return nil, fmt.Errorf("unknown order email %q", k)
	}
}

func (s *MongoStore) InsertOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now()
	o.ID = primitive.NewObjectID()
	o.Version = 1
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := s.col(ordersCollection).InsertOne(ctx, o)
	return mongoErr("insert order", err)
}

func (s *MongoStore) FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var o models.Order
	if err := s.col(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mongoErr("find order", err)
	}
	return &o, nil
}

func (s *MongoStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	orders, err := findAll[models.Order](ctx, s.col(ordersCollection), filter, opts)
	return orders, mongoErr("list orders", err)
}

// SetOrderStatus writes any status in range; there is no transition graph.
// The write only lands on the version the caller read.
func (s *MongoStore) SetOrderStatus(ctx context.Context, id primitive.ObjectID, version int64, status models.OrderStatus) (*models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.col(ordersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{
			"$set": bson.M{"status": status, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
		opts,
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.col(ordersCollection).CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, mongoErr("set order status", cerr)
		}
		if n > 0 {
			return nil, mongoErr("set order status", ErrConflict)
		}
	}
	if err != nil {
		return nil, mongoErr("set order status", err)
	}
	return &o, nil
}

func (s *MongoStore) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(ordersCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr("delete order", err)
	}
	if res.DeletedCount == 0 {
		return mongoErr("delete order", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) OrdersAwaitingEmail(ctx context.Context, kind OrderEmail, limit int64) ([]models.Order, error) {
	filter, err := kind.awaitingFilter()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit)
	orders, err := findAll[models.Order](ctx, s.col(ordersCollection), filter, opts)
	return orders, mongoErr("orders awaiting email", err)
}

func (s *MongoStore) MarkOrderEmailSent(ctx context.Context, id primitive.ObjectID, kind OrderEmail, at time.Time) (bool, error) {
	filter, err := kind.awaitingFilter()
	if err != nil {
		return false, err
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter["_id"] = id
	res, err := s.col(ordersCollection).UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		kind.flagField():        true,
		kind.flagField() + "At": at,
	}})
	if err != nil {
		return false, mongoErr("mark order email", err)
	}
	return res.ModifiedCount == 1, nil
}
