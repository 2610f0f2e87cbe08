package database

import (
	"context"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *MongoStore) FindCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var cart models.Cart
	if err := s.col(cartsCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, mongoErr("find cart", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now()
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	if cart.ID.IsZero() {
		doc := *cart
		doc.ID = primitive.NewObjectID()
		doc.Version = 1
		doc.UpdatedAt = now
		if _, err := s.col(cartsCollection).InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// Another request created this user's cart first.
				return mongoErr("insert cart", ErrConflict)
			}
			return mongoErr("insert cart", err)
		}
		*cart = doc
		return nil
	}

	res, err := s.col(cartsCollection).UpdateOne(ctx,
		bson.M{"_id": cart.ID, "version": cart.Version},
		bson.M{
			"$set": bson.M{"items": cart.Items, "updatedAt": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return mongoErr("save cart", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("save cart", ErrConflict)
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}
