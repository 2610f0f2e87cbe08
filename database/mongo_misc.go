package database

import (
	"context"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) FindWishlist(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var w models.Wishlist
	if err := s.col(wishlistsCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&w); err != nil {
		return nil, mongoErr("find wishlist", err)
	}
	if w.ProductIDs == nil {
		w.ProductIDs = []primitive.ObjectID{}
	}
	return &w, nil
}

// SaveWishlist upserts the wishlist keyed by its user.
func (s *MongoStore) SaveWishlist(ctx context.Context, w *models.Wishlist) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if w.ProductIDs == nil {
		w.ProductIDs = []primitive.ObjectID{}
	}
	w.UpdatedAt = time.Now()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.Wishlist
	upsert := func() error {
		return s.col(wishlistsCollection).FindOneAndUpdate(ctx,
			bson.M{"userId": w.UserID},
			bson.M{"$set": bson.M{"productIds": w.ProductIDs, "updatedAt": w.UpdatedAt}},
			opts,
		).Decode(&saved)
	}
	err := upsert()
	if mongo.IsDuplicateKeyError(err) {
		// Two first saves raced on the unique userId index; the loser now
		// finds the document and updates it.
		err = upsert()
	}
	if err != nil {
		return mongoErr("save wishlist", err)
	}
	w.ID = saved.ID
	return nil
}

func (s *MongoStore) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	entry.ID = primitive.NewObjectID()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := s.col(auditCollection).InsertOne(ctx, entry)
	return mongoErr("insert audit log", err)
}

func (s *MongoStore) ListAuditLogs(ctx context.Context, limit int64) ([]models.AuditLog, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	entries, err := findAll[models.AuditLog](ctx, s.col(auditCollection), bson.M{}, opts)
	return entries, mongoErr("list audit logs", err)
}
